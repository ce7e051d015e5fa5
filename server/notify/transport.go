package notify

import "context"

// Transport sends a single SMS & returns the provider's message id
type Transport interface {
	Send(ctx context.Context, body, from, to string) (string, error)
}

// Simulator is implemented by transports that may run without live credentials.
// When Simulated returns true the dispatcher never calls Send.
type Simulator interface {
	Simulated() bool
}

// Simulation is the transport used when no SMS credentials are configured
type Simulation struct{}

func (Simulation) Send(ctx context.Context, body, from, to string) (string, error) {
	return "simulated", nil
}

func (Simulation) Simulated() bool {
	return true
}

func isSimulated(transport Transport) bool {
	if transport == nil {
		return true
	}

	simulator, ok := transport.(Simulator)
	return ok && simulator.Simulated()
}
