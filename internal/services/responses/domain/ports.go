package domain

import (
	"context"

	"likert/internal/core/schema"
)

// ServicePort is consumed by handlers, the dashboard and the admin cli
type ServicePort interface {
	Schema() *schema.Schema
	Submit(ctx context.Context, in SubmitInput) (Ack, error)
	List(ctx context.Context) (Listing, error)
	Stats(ctx context.Context) Stats
	Export(ctx context.Context) (Download, error)
	Repair(ctx context.Context) (RepairReport, error)
}
