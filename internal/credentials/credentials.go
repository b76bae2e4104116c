// Package credentials stores each user's LinkedIn access token and member id.
package credentials

import (
	"context"
	"errors"
	"strconv"
)

var ErrNotFound = errors.New("credentials not found")

// Record is the on-disk shape: {"access_token": ..., "user_urn": ...}.
type Record struct {
	AccessToken string `json:"access_token"`
	UserURN     string `json:"user_urn"`
}

// Valid reports whether the record can be used to publish.
func (r Record) Valid() bool { return r.AccessToken != "" && r.UserURN != "" }

// Entry pairs a record with its owner, for listings.
type Entry struct {
	UserID int64
	Record Record
}

type Repository interface {
	Get(ctx context.Context, userID int64) (Record, error)
	Put(ctx context.Context, userID int64, rec Record) error
	Delete(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]Entry, error)
}

// Lookup returns the record and whether a usable one exists. Storage errors
// other than ErrNotFound are returned as-is.
func Lookup(ctx context.Context, repo Repository, userID int64) (Record, bool, error) {
	rec, err := repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, rec.Valid(), nil
}

// Mask hides all but the last four characters of a token.
func Mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

func key(userID int64) string { return strconv.FormatInt(userID, 10) }
