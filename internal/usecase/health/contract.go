package health

import "context"

// DBPinger checks taxonomy store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EngineChecker checks that the session writer loop is responsive.
type EngineChecker interface {
	Ping(ctx context.Context) error
}
