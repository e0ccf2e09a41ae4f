package cli

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
)

// fakeSettings is a map-backed driving.SettingsService.
type fakeSettings struct {
	values      map[string]any
	validateErr error
}

func (f *fakeSettings) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	if v, ok := f.values["openai.api_key"].(string); ok {
		s.OpenAI.APIKey = v
	}
	if v, ok := f.values["dropbox.app_secret"].(string); ok {
		s.Dropbox.AppSecret = v
	}
	return &s, nil
}

func (f *fakeSettings) Validate(*domain.AppSettings) error { return f.validateErr }

func (f *fakeSettings) Set(key string, value any) error {
	f.values[key] = value
	return nil
}

// fakeProcessor records runs.
type fakeProcessor struct {
	mu       sync.Mutex
	triggers []domain.Trigger
	summary  func(requestID string, trigger domain.Trigger) *domain.RunSummary
	err      error
}

func (f *fakeProcessor) RunOnce(_ context.Context, trigger domain.Trigger, requestID string) (*domain.RunSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if f.summary != nil {
		return f.summary(requestID, trigger), f.err
	}
	return domain.NewRunSummary(requestID, trigger), f.err
}

func (f *fakeProcessor) runs() []domain.Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Trigger(nil), f.triggers...)
}

// fakeCursor is an in-memory driving.CursorService.
type fakeCursor struct {
	cursor string
	resets int
}

func (f *fakeCursor) Status(context.Context) (*domain.CursorStatus, error) {
	return domain.NewCursorStatus(f.cursor), nil
}

func (f *fakeCursor) Reset(context.Context) error {
	f.cursor = ""
	f.resets++
	return nil
}

type fakeScheduler struct{}

func (fakeScheduler) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (fakeScheduler) Stop() error { return nil }

// fakeAuthorizer builds a URL carrying the redirect and state, and
// returns a fixed token for the expected code.
type fakeAuthorizer struct {
	token    string
	gotCode  string
	verifier string
}

func (f *fakeAuthorizer) AuthCodeURL(redirectURI, state, verifier string) string {
	f.verifier = verifier
	q := url.Values{"redirect_uri": {redirectURI}, "state": {state}}
	return "https://auth.example.com/authorize?" + q.Encode()
}

func (f *fakeAuthorizer) Exchange(_ context.Context, code, _, verifier string) (string, error) {
	f.gotCode = code
	if verifier != f.verifier {
		return "", errors.New("verifier mismatch")
	}
	return f.token, nil
}

// fakeServices wires fakes into the Services interface.
type fakeServices struct {
	settings  *fakeSettings
	processor *fakeProcessor
	cursor    *fakeCursor
	auth      *fakeAuthorizer
	account   string
	verifyErr error
	verified  int
	changes   int
	closed    bool
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		settings:  &fakeSettings{values: make(map[string]any)},
		processor: &fakeProcessor{},
		cursor:    &fakeCursor{},
		auth:      &fakeAuthorizer{token: "refresh-123"},
		account:   "Ada Lovelace <ada@example.com>",
	}
}

func (f *fakeServices) Settings() (driving.SettingsService, error) { return f.settings, nil }

func (f *fakeServices) Processor() (driving.DeltaProcessor, error) { return f.processor, nil }

func (f *fakeServices) Cursor() (driving.CursorService, error) { return f.cursor, nil }

func (f *fakeServices) Scheduler() (driving.Scheduler, error) { return fakeScheduler{}, nil }

func (f *fakeServices) Authorizer() (Authorizer, error) { return f.auth, nil }

func (f *fakeServices) Metrics() Metrics { return nil }

func (f *fakeServices) VerifyAccount(context.Context) (string, error) {
	f.verified++
	return f.account, f.verifyErr
}

// Watch reports the configured number of changes, then returns.
func (f *fakeServices) Watch(_ context.Context, onChange func()) error {
	for range f.changes {
		onChange()
	}
	return nil
}

func (f *fakeServices) Close() error {
	f.closed = true
	return nil
}

// useServices installs s and returns a restore function.
func useServices(s Services) func() {
	old := services
	services = s
	return func() { services = old }
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
