// Package main is a small interactive client for the payflow API. It drives
// the auth store from the terminal and shows the route guard's decisions,
// which makes it handy for poking at a running server during development.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nkarlsen/payflow/internal/client"
)

func main() {
	server := flag.String("server", "http://localhost:3000", "base URL of the payflow server")
	flag.Parse()

	store := client.NewStore(client.NewAPI(*server))

	fmt.Printf("payflow client -- connected to %s\n", *server)
	fmt.Println("commands: register <email> <password> <name...>, login <email> <password>,")
	fmt.Println("          logout, whoami, goto <path>, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "register":
			if len(fields) < 4 {
				fmt.Println("usage: register <email> <password> <name...>")
				continue
			}
			name := strings.Join(fields[3:], " ")
			report(store.Register(context.Background(), fields[1], fields[2], name))

		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <email> <password>")
				continue
			}
			report(store.Login(context.Background(), fields[1], fields[2]))

		case "logout":
			report(store.Logout())

		case "whoami":
			state := store.Snapshot()
			if state.User == nil {
				fmt.Println("not logged in")
				continue
			}
			fmt.Printf("%s <%s>\n", state.User.Name, state.User.Email)

		case "goto":
			if len(fields) != 2 {
				fmt.Println("usage: goto <path>")
				continue
			}
			decision := client.Evaluate(store.Snapshot(), client.Lookup(fields[1]))
			switch decision.Kind {
			case client.DecisionRender:
				fmt.Printf("rendering %s\n", fields[1])
			case client.DecisionRedirect:
				fmt.Printf("redirect to %s (wanted %s)\n", decision.To, decision.From)
			case client.DecisionWait:
				fmt.Println("waiting for auth to settle")
			}

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

// report prints the state resulting from a store transition.
func report(state client.State) {
	switch state.Phase() {
	case client.PhaseAuthenticated:
		fmt.Printf("authenticated as %s\n", state.User.Email)
	case client.PhaseErrored:
		fmt.Printf("error: %v\n", state.Err)
	case client.PhaseIdle:
		fmt.Println("logged out")
	case client.PhaseLoading:
		fmt.Println("still loading")
	}
}
