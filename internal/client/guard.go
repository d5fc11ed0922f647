package client

// DecisionKind is the outcome of a route guard evaluation.
type DecisionKind string

const (
	// DecisionRender lets the navigation proceed.
	DecisionRender DecisionKind = "render"

	// DecisionWait defers the navigation until the in-flight auth attempt
	// completes, so an unauthenticated flash never appears mid-login.
	DecisionWait DecisionKind = "wait"

	// DecisionRedirect sends the user to another route, preserving where
	// they were headed so a successful login can resume the navigation.
	DecisionRedirect DecisionKind = "redirect"
)

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Kind DecisionKind

	// To is the redirect target. Set only for DecisionRedirect.
	To string

	// From is the route the user was trying to reach. Set only for
	// DecisionRedirect so the login flow can return there afterwards.
	From string
}

// Evaluate decides whether a navigation to the given route may proceed.
// Pure function of the snapshot and the route: protected routes wait out a
// loading state, redirect unauthenticated users to the login route, and
// render for everyone else.
func Evaluate(state State, route Route) Decision {
	if !route.Protected {
		return Decision{Kind: DecisionRender}
	}

	switch {
	case state.IsLoading:
		return Decision{Kind: DecisionWait}
	case !state.IsAuthenticated:
		return Decision{Kind: DecisionRedirect, To: LoginRoute, From: route.Path}
	default:
		return Decision{Kind: DecisionRender}
	}
}
