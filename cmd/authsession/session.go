package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/two-shoulder/authsession/internal/bootstrap"
	apperrors "github.com/two-shoulder/authsession/internal/errors"
	"github.com/two-shoulder/authsession/internal/service"
)

const defaultReadyTimeout = 30 * time.Second

type sessionOptions struct {
	Timeout time.Duration
}

func parseSessionFlags(name string, args []string) (sessionOptions, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := sessionOptions{Timeout: defaultReadyTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultReadyTimeout, "Maximum duration to wait for sign-in")

	if err := fs.Parse(args); err != nil {
		return sessionOptions{}, nil, err
	}
	if opts.Timeout <= 0 {
		return sessionOptions{}, nil, errors.New("--timeout must be greater than zero")
	}
	return opts, fs.Args(), nil
}

type openSession struct {
	container     *bootstrap.SessionContainer
	view          *service.SessionView
	authenticated bool
}

// open wires the session and waits for initialization to settle.
func open(cmdCtx *commandContext, timeout time.Duration) (*openSession, error) {
	container, err := bootstrap.BuildSessionManager(bootstrap.SessionDeps{
		Config: cmdCtx.Config,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}

	view := container.Manager.Attach(cmdCtx.Ctx)
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, timeout)
	defer cancel()

	ok, err := view.WaitReady(ctx)
	if err != nil {
		view.Detach()
		if cerr := container.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return &openSession{container: container, view: view, authenticated: ok}, nil
}

func (s *openSession) close(cmdCtx *commandContext) {
	s.view.Detach()
	if err := s.container.Close(); err != nil {
		cmdCtx.Logger.Warn("close session resources", "error", err)
	}
}

func runStatus(cmdCtx *commandContext, args []string) error {
	opts, _, err := parseSessionFlags("status", args)
	if err != nil {
		return err
	}
	s, err := open(cmdCtx, opts.Timeout)
	if err != nil {
		return err
	}
	defer s.close(cmdCtx)

	return printStatus(cmdCtx.Out, s.view, s.container.Manager.Snapshot().Tokens.ExpiresAt)
}

func runPermissions(cmdCtx *commandContext, args []string) error {
	opts, _, err := parseSessionFlags("permissions", args)
	if err != nil {
		return err
	}
	s, err := open(cmdCtx, opts.Timeout)
	if err != nil {
		return err
	}
	defer s.close(cmdCtx)

	if !s.authenticated {
		return apperrors.ErrNotAuthenticated
	}
	return printPermissions(cmdCtx.Out, s.view)
}

func runCheck(cmdCtx *commandContext, args []string) error {
	opts, rest, err := parseSessionFlags("check", args)
	if err != nil {
		return err
	}
	if len(rest) != 1 || strings.TrimSpace(rest[0]) == "" {
		return errors.New("usage: authsession check [--timeout d] <module>")
	}
	module := strings.TrimSpace(rest[0])

	s, err := open(cmdCtx, opts.Timeout)
	if err != nil {
		return err
	}
	defer s.close(cmdCtx)

	if !s.view.HasModulePermission(module) {
		if werr := writef(cmdCtx.Out, "%s: denied\n", module); werr != nil {
			return werr
		}
		return fmt.Errorf("module %q is not granted", module)
	}
	return writef(cmdCtx.Out, "%s: granted\n", module)
}

func runToken(cmdCtx *commandContext, args []string) error {
	opts, _, err := parseSessionFlags("token", args)
	if err != nil {
		return err
	}
	s, err := open(cmdCtx, opts.Timeout)
	if err != nil {
		return err
	}
	defer s.close(cmdCtx)

	token := s.view.Token()
	if token == "" {
		return apperrors.ErrNotAuthenticated
	}
	return writeln(cmdCtx.Out, token)
}

func runWatch(cmdCtx *commandContext, args []string) error {
	opts, _, err := parseSessionFlags("watch", args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmdCtx.Ctx = ctx

	s, err := open(cmdCtx, opts.Timeout)
	if err != nil {
		return err
	}
	defer s.close(cmdCtx)
	if !s.authenticated {
		return apperrors.ErrNotAuthenticated
	}

	ended := make(chan struct{})
	sub := s.container.Manager.Subscribe(watchLogger(cmdCtx, ended))
	defer sub.Unsubscribe()

	listenErr := make(chan error, 1)
	if cmdCtx.Config.Redis.Enabled {
		go func() {
			listenErr <- bootstrap.RunLogoutListener(ctx, cmdCtx.Config, s.container.Manager, cmdCtx.Logger)
		}()
	}

	cmdCtx.Logger.InfoContext(ctx, "watching session", "remote_logout", cmdCtx.Config.Redis.Enabled)
	select {
	case <-ctx.Done():
		return nil
	case <-ended:
		cmdCtx.Logger.InfoContext(ctx, "session ended")
		return nil
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("logout listener: %w", err)
		}
		return nil
	}
}

// watchLogger logs every session event and closes ended on the first reset.
func watchLogger(cmdCtx *commandContext, ended chan<- struct{}) func(service.Event) {
	var once sync.Once
	return func(ev service.Event) {
		cmdCtx.Logger.Info("session event", eventAttrs(ev)...)
		if _, ok := ev.(service.ResetEvent); ok {
			once.Do(func() { close(ended) })
		}
	}
}

// eventAttrs describes ev for logging. Token values are never included.
func eventAttrs(ev service.Event) []any {
	attrs := []any{"kind", string(ev.Kind())}
	switch e := ev.(type) {
	case service.InitializedEvent:
		attrs = append(attrs, "authenticated", e.Authenticated)
	case service.ErrorEvent:
		attrs = append(attrs, "message", e.Message)
	case service.TokenUpdatedEvent:
		attrs = append(attrs, "has_refresh_token", e.RefreshToken != "")
	case service.AccessResolvedEvent:
		attrs = append(attrs, "roles", e.Access.Roles, "modules", grantedModules(e.Access.Permissions))
	case service.ProfileLoadedEvent:
		attrs = append(attrs, "username", e.Profile.Username)
	}
	return attrs
}

func grantedModules(perms map[string]bool) []string {
	out := make([]string, 0, len(perms))
	for m, ok := range perms {
		if ok {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

func printStatus(w io.Writer, v *service.SessionView, expiresAt time.Time) error {
	st := v.State()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "Authenticated\t%t\n", st.Authenticated); err != nil {
		return fmt.Errorf("write authenticated: %w", err)
	}
	if st.UserInfo != nil {
		if err := writef(tw, "User\t%s <%s>\n", st.UserInfo.Username, st.UserInfo.Email); err != nil {
			return fmt.Errorf("write user: %w", err)
		}
	}
	if st.Authenticated {
		if err := writef(tw, "Roles\t%s\n", strings.Join(v.UserRoles(), ", ")); err != nil {
			return fmt.Errorf("write roles: %w", err)
		}
		if err := writef(tw, "Super role\t%t\n", v.HasSuperRole()); err != nil {
			return fmt.Errorf("write super role: %w", err)
		}
		if !expiresAt.IsZero() {
			if err := writef(tw, "Token expires\t%s\n", expiresAt.UTC().Format(time.RFC3339)); err != nil {
				return fmt.Errorf("write expiry: %w", err)
			}
		}
		if err := writef(tw, "Account\t%s\n", v.AccountManagementURL()); err != nil {
			return fmt.Errorf("write account url: %w", err)
		}
	}
	if st.Error != "" {
		if err := writef(tw, "Error\t%s\n", st.Error); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}
	return tw.Flush()
}

func printPermissions(w io.Writer, v *service.SessionView) error {
	perms := v.State().Access.Permissions
	modules := make([]string, 0, len(perms))
	for m := range perms {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "MODULE\tGRANTED"); err != nil {
		return fmt.Errorf("write permissions header: %w", err)
	}
	for _, m := range modules {
		if err := writef(tw, "%s\t%t\n", m, v.HasModulePermission(m)); err != nil {
			return fmt.Errorf("write permission %q: %w", m, err)
		}
	}
	if v.HasSuperRole() {
		if err := writeln(tw, "*\ttrue"); err != nil {
			return fmt.Errorf("write super role row: %w", err)
		}
	}
	return tw.Flush()
}
