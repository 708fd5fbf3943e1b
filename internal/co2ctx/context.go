package co2ctx

import "context"

type ctxKey string

const (
	keyRID          ctxKey = "co2_rid"
	keySubmissionID ctxKey = "co2_submission_id"
	keyUID          ctxKey = "co2_uid"
)

// WithRID stores the request id used to correlate log lines.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithSubmissionID tags CO2 estimation logs with the farm submission they belong to.
func WithSubmissionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keySubmissionID, id)
}

func SubmissionID(ctx context.Context) string {
	v, _ := ctx.Value(keySubmissionID).(string)
	return v
}

// WithUID stores the authenticated user id.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUID, uid)
}

func UID(ctx context.Context) string {
	v, _ := ctx.Value(keyUID).(string)
	return v
}
