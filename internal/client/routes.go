package client

// LoginRoute is where the guard sends unauthenticated users.
const LoginRoute = "/login"

// Route is one entry in the client's route table.
type Route struct {
	Path      string
	Protected bool
}

// Routes is the full route table. Everything except the credential forms
// requires authentication.
var Routes = []Route{
	{Path: "/login", Protected: false},
	{Path: "/register", Protected: false},
	{Path: "/", Protected: true},
	{Path: "/dashboard", Protected: true},
	{Path: "/payments", Protected: true},
	{Path: "/profile", Protected: true},
}

// Lookup finds a route by path. Unknown paths are treated as protected so
// a routing mistake fails closed.
func Lookup(path string) Route {
	for _, r := range Routes {
		if r.Path == path {
			return r
		}
	}
	return Route{Path: path, Protected: true}
}
