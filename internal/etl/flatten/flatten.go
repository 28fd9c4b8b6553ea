// Package flatten turns nested vendor documents into flat warehouse rows.
// Transformation is pure and deterministic: the same input batch always
// yields the same rows in the same order.
package flatten

import (
	"cloud.google.com/go/bigquery"

	"github.com/goforsam/toast-api/internal/toast"
)

func nullString(s string) bigquery.NullString {
	if s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: s, Valid: true}
}

func nullFloat(p *float64) bigquery.NullFloat64 {
	if p == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *p, Valid: true}
}

func nullTimestamp(t toast.Timestamp) bigquery.NullTimestamp {
	if !t.Valid() {
		return bigquery.NullTimestamp{}
	}
	return bigquery.NullTimestamp{Timestamp: t.Time, Valid: true}
}

func refGUID(ref *toast.EntityRef) bigquery.NullString {
	if ref == nil || ref.GUID == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: ref.GUID, Valid: true}
}

func refName(ref *toast.EntityRef) bigquery.NullString {
	if ref == nil || ref.Name == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: ref.Name, Valid: true}
}
