package syncer

import (
	"context"
	"fmt"
)

// MergeResult counts what happened to each incoming record.
type MergeResult struct {
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
	Messages []string `json:"messages,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *MergeResult) Synced() int {
	return r.Created + r.Updated
}

func (r *MergeResult) Fail(msg string) {
	r.Errors++
	r.Messages = append(r.Messages, msg)
}

// SkipWithMessage counts a skip that callers should still hear about.
func (r *MergeResult) SkipWithMessage(msg string) {
	r.Skipped++
	r.Messages = append(r.Messages, msg)
}

func (r *MergeResult) Warn(msgs ...string) {
	r.Warnings = append(r.Warnings, msgs...)
}

func (r *MergeResult) Add(o MergeResult) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Errors += o.Errors
	r.Messages = append(r.Messages, o.Messages...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// MergeOps describes how one incoming record type maps onto its stored entity.
// Find looks up by external key only. A nil Create makes absent records skips.
type MergeOps[In any, Stored any] struct {
	Key    func(in In) string
	Find   func(ctx context.Context, key string, in In) (*Stored, error)
	Create func(ctx context.Context, in In) (*Stored, error)
	Update func(ctx context.Context, existing *Stored, in In) error
	// Stored, when set, sees every record that was created or updated.
	Stored func(in In, stored *Stored)
}

// Merge upserts records in order. A failing record is counted and the loop continues;
// a cancelled context stops it between records.
func Merge[In any, Stored any](ctx context.Context, records []In, ops MergeOps[In, Stored]) MergeResult {
	var res MergeResult
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			res.Fail(fmt.Sprintf("stopped: %v", err))
			return res
		}
		key := ops.Key(rec)
		if key == "" {
			res.Skipped++
			continue
		}
		mergeOne(ctx, key, rec, ops, &res)
	}
	return res
}

func mergeOne[In any, Stored any](ctx context.Context, key string, rec In, ops MergeOps[In, Stored], res *MergeResult) {
	defer func() {
		if p := recover(); p != nil {
			res.Fail(fmt.Sprintf("%s: panic: %v", key, p))
		}
	}()

	existing, err := ops.Find(ctx, key, rec)
	if err != nil {
		res.Fail(fmt.Sprintf("%s: lookup: %v", key, err))
		return
	}
	if existing == nil {
		if ops.Create == nil {
			res.Skipped++
			return
		}
		created, err := ops.Create(ctx, rec)
		if err != nil {
			res.Fail(fmt.Sprintf("%s: create: %v", key, err))
			return
		}
		res.Created++
		if ops.Stored != nil {
			ops.Stored(rec, created)
		}
		return
	}
	if err := ops.Update(ctx, existing, rec); err != nil {
		res.Fail(fmt.Sprintf("%s: update: %v", key, err))
		return
	}
	res.Updated++
	if ops.Stored != nil {
		ops.Stored(rec, existing)
	}
}
