package shadow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"idv/internal/proofing/asyncresult"
	"idv/internal/proofing/costs"
	"idv/internal/proofing/pii"
	"idv/internal/proofing/plugins"
	"idv/internal/proofing/vendors"
	"idv/pkg/platform/sentinel"
)

// ErrPrimaryMissing means the primary result expired or never finished.
// The shadow job is discarded.
var ErrPrimaryMissing = errors.New("shadow: primary proofing result missing")

// Args are enqueued by the proofing job.
type Args struct {
	ResultID           string `json:"result_id"`
	EncryptedArguments string `json:"encrypted_arguments"`
	DecryptionContext  string `json:"decryption_context"`
	ServiceProvider    string `json:"service_provider,omitempty"`
	UserID             string `json:"user_id,omitempty"`
	TraceID            string `json:"trace_id,omitempty"`
}

// ResultLoader reads the primary stored result.
type ResultLoader interface {
	Load(ctx context.Context, id string) (*asyncresult.Record, error)
}

// Decryptor opens the proofing arguments.
type Decryptor interface {
	Decrypt(ciphertext, context string) ([]byte, error)
}

// Comparison is logged for every completed shadow run.
type Comparison struct {
	ResultID        string              `json:"result_id"`
	PrimaryVendor   string              `json:"primary_vendor"`
	PrimarySuccess  bool                `json:"primary_success"`
	ShadowVendor    string              `json:"shadow_vendor"`
	ShadowSuccess   bool                `json:"shadow_success"`
	ShadowException string              `json:"shadow_exception,omitempty"`
	Agree           bool                `json:"agree"`
	OnlyPrimary     []vendors.Attribute `json:"only_primary,omitempty"`
	OnlyShadow      []vendors.Attribute `json:"only_shadow,omitempty"`
}

// Runner executes shadow jobs.
type Runner struct {
	loader    ResultLoader
	decryptor Decryptor
	proofer   vendors.Proofer
	costs     plugins.CostRecorder
	costType  string
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithCostRecorder bills shadow calls under costType.
func WithCostRecorder(rec plugins.CostRecorder, costType string) Option {
	return func(r *Runner) {
		r.costs = rec
		r.costType = costType
	}
}

func NewRunner(loader ResultLoader, decryptor Decryptor, proofer vendors.Proofer, opts ...Option) (*Runner, error) {
	if loader == nil || decryptor == nil || proofer == nil {
		return nil, errors.New("shadow: loader, decryptor and proofer are required")
	}
	r := &Runner{
		loader:    loader,
		decryptor: decryptor,
		proofer:   proofer,
		costType:  vendors.CostSocureResolution,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Perform proofs the applicant with the shadow vendor and logs how it
// compares to the primary resolution result.
func (r *Runner) Perform(ctx context.Context, args Args) (*Comparison, error) {
	rec, err := r.loader.Load(ctx, args.ResultID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("load primary result: %w", err)
	}
	if rec == nil || !rec.Done() || rec.Result == nil || rec.Result.ResolutionResult == nil {
		r.logger.InfoContext(ctx, "idv_socure_shadow_mode_proofing_result_missing",
			"result_id", args.ResultID,
			"trace_id", args.TraceID,
		)
		return nil, ErrPrimaryMissing
	}

	plaintext, err := r.decryptor.Decrypt(args.EncryptedArguments, args.DecryptionContext)
	if err != nil {
		return nil, fmt.Errorf("decrypt shadow arguments: %w", err)
	}
	applicant, err := pii.DecodeApplicant(plaintext)
	if err != nil {
		return nil, err
	}

	shadowResult := r.proofer.Proof(ctx, applicant)
	if r.costs != nil {
		r.costs.Record(ctx, costs.Entry{
			CostType:      r.costType,
			Issuer:        args.ServiceProvider,
			TransactionID: shadowResult.TransactionID,
			TraceID:       args.TraceID,
		})
	}

	cmp := Compare(args.ResultID, rec.Result.ResolutionResult, shadowResult)
	r.logger.InfoContext(ctx, "idv_socure_shadow_mode_proofing_result",
		"result_id", cmp.ResultID,
		"trace_id", args.TraceID,
		"user_id", args.UserID,
		"primary_vendor", cmp.PrimaryVendor,
		"primary_success", cmp.PrimarySuccess,
		"shadow_vendor", cmp.ShadowVendor,
		"shadow_success", cmp.ShadowSuccess,
		"shadow_exception", cmp.ShadowException,
		"agree", cmp.Agree,
		"only_primary", cmp.OnlyPrimary,
		"only_shadow", cmp.OnlyShadow,
	)
	return &cmp, nil
}

// Compare diffs the verified attributes of two resolution results.
func Compare(resultID string, primary, shadow *vendors.Result) Comparison {
	cmp := Comparison{
		ResultID:       resultID,
		PrimaryVendor:  primary.VendorName,
		PrimarySuccess: primary.Success,
		ShadowVendor:   shadow.VendorName,
		ShadowSuccess:  shadow.Success,
		Agree:          primary.Success == shadow.Success,
	}
	if shadow.HasException() {
		cmp.ShadowException = string(shadow.Exception.Kind)
	}
	for _, a := range primary.VerifiedAttributes {
		if !shadow.Verified(a) {
			cmp.OnlyPrimary = append(cmp.OnlyPrimary, a)
		}
	}
	for _, a := range shadow.VerifiedAttributes {
		if !primary.Verified(a) {
			cmp.OnlyShadow = append(cmp.OnlyShadow, a)
		}
	}
	slices.Sort(cmp.OnlyPrimary)
	slices.Sort(cmp.OnlyShadow)
	return cmp
}
