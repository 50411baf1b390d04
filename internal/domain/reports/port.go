package reports

import "context"

// Generator port: renders a bundle into PDF bytes (done by the backend).
type Generator interface {
	Generate(ctx context.Context, b Bundle) ([]byte, error)
}

// Archive port for keeping a copy of generated reports in object storage.
type Archive interface {
	Put(ctx context.Context, key string, pdf []byte) (string, error)
}
