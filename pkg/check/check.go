// Package check turns a list of boolean conditions into a single HTTP error.
//
//	err := check.All(check.Options{Message: "cannot edit post"},
//		check.If(p.Account.Verified).Message("verify your e-mail first").Status(http.StatusForbidden),
//		check.If(post.AuthorID == p.Account.ID),
//	)
package check

import (
	"net/http"

	"github.com/Ryan-Har/commonground/api"
)

// Mode selects how conditions combine.
type Mode int

const (
	// ModeAll fails when any condition is false.
	ModeAll Mode = iota
	// ModeAny fails only when every condition is false.
	ModeAny
)

const defaultMessage = "Bad Request"

// Condition is one boolean with an optional message and status used when it
// is the condition that fails.
type Condition struct {
	OK      bool
	message string
	status  int
}

func If(ok bool) Condition {
	return Condition{OK: ok}
}

// Message overrides the default message when this condition fails.
func (c Condition) Message(msg string) Condition {
	c.message = msg
	return c
}

// Status overrides the default status when this condition fails.
func (c Condition) Status(status int) Condition {
	c.status = status
	return c
}

// Options holds the defaults. Zero values mean 400 and "Bad Request".
type Options struct {
	Message string
	Status  int
}

func (o Options) withDefaults() Options {
	if o.Message == "" {
		o.Message = defaultMessage
	}
	if o.Status == 0 {
		o.Status = http.StatusBadRequest
	}
	return o
}

func All(opts Options, conds ...Condition) error {
	return Check(ModeAll, opts, conds...)
}

func Any(opts Options, conds ...Condition) error {
	return Check(ModeAny, opts, conds...)
}

// Check returns nil when the conditions pass and an *api.Error otherwise.
//
// In ModeAll the first failing condition's overrides are used, each falling
// back to the default it does not set. In ModeAny the defaults are used.
// An empty list passes in ModeAll and fails in ModeAny.
func Check(mode Mode, opts Options, conds ...Condition) error {
	opts = opts.withDefaults()

	switch mode {
	case ModeAny:
		for _, c := range conds {
			if c.OK {
				return nil
			}
		}
		return api.FromStatus(opts.Status, opts.Message)
	default:
		for _, c := range conds {
			if c.OK {
				continue
			}
			status, msg := opts.Status, opts.Message
			if c.status != 0 {
				status = c.status
			}
			if c.message != "" {
				msg = c.message
			}
			return api.FromStatus(status, msg)
		}
		return nil
	}
}
