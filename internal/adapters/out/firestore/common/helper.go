package common

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ========================
// Transaction in context
// ========================

type txKey struct{}

// CtxWithTx stores a running Firestore transaction in the context so that
// repository methods participate in it transparently.
func CtxWithTx(ctx context.Context, tx *firestore.Transaction) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom extracts the transaction, if any.
func TxFrom(ctx context.Context) (*firestore.Transaction, bool) {
	tx, ok := ctx.Value(txKey{}).(*firestore.Transaction)
	return tx, ok && tx != nil
}

// GetDoc reads through the ambient transaction when present.
func GetDoc(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	if tx, ok := TxFrom(ctx); ok {
		return tx.Get(ref)
	}
	return ref.Get(ctx)
}

// CreateDoc writes through the ambient transaction when present.
func CreateDoc(ctx context.Context, ref *firestore.DocumentRef, data any) error {
	if tx, ok := TxFrom(ctx); ok {
		return tx.Create(ref, data)
	}
	_, err := ref.Create(ctx, data)
	return err
}

func SetDoc(ctx context.Context, ref *firestore.DocumentRef, data any) error {
	if tx, ok := TxFrom(ctx); ok {
		return tx.Set(ref, data)
	}
	_, err := ref.Set(ctx, data)
	return err
}

func UpdateDoc(ctx context.Context, ref *firestore.DocumentRef, updates []firestore.Update) error {
	if tx, ok := TxFrom(ctx); ok {
		return tx.Update(ref, updates)
	}
	_, err := ref.Update(ctx, updates)
	return err
}

func DeleteDoc(ctx context.Context, ref *firestore.DocumentRef) error {
	if tx, ok := TxFrom(ctx); ok {
		return tx.Delete(ref)
	}
	_, err := ref.Delete(ctx)
	return err
}

// ========================
// Error classification
// ========================

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func IsAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// ========================
// Document decode helpers
// ========================

func Str(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func Int(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func Float(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func Bool(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}

// Time accepts both native time values and protobuf timestamps
// (environment differences in older documents).
func Time(data map[string]any, key string) (time.Time, bool) {
	switch v := data[key].(type) {
	case time.Time:
		if !v.IsZero() {
			return v.UTC(), true
		}
	case *timestamppb.Timestamp:
		if v != nil {
			t := v.AsTime()
			if !t.IsZero() {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func TimePtr(data map[string]any, key string) *time.Time {
	if t, ok := Time(data, key); ok {
		return &t
	}
	return nil
}

func StrSlice(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func MapSlice(data map[string]any, key string) []map[string]any {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func SubMap(data map[string]any, key string) (map[string]any, bool) {
	m, ok := data[key].(map[string]any)
	return m, ok
}

// PrefixEnd returns the upper bound for a name-prefix range scan.
func PrefixEnd(term string) string {
	return term + ""
}
