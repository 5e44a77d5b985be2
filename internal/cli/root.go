package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmehra2102/TodoDesk/internal/board"
	"github.com/dmehra2102/TodoDesk/internal/domain"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/config"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/logging"
	"github.com/dmehra2102/TodoDesk/internal/relay"
	"github.com/dmehra2102/TodoDesk/pkg/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	clientName  = "todo-cli"
	callTimeout = 10 * time.Second
)

var version = "dev"

// Relay is everything the CLI needs from the relay host.
type Relay interface {
	board.Relay
	ClearAll(ctx context.Context) error
	GetStatus(ctx context.Context) (domain.StoreStatus, error)
	Close() error
}

var _ Relay = (*relay.Client)(nil)

// connect opens the relay session. Tests replace it.
var connect = func(cfg *config.Config, addr string) (Relay, error) {
	var opts []relay.ClientOption
	if cfg.RelaySecret != "" {
		token, err := auth.NewTokenIssuer(cfg.RelaySecret, cfg.TokenTTL).Issue(clientName)
		if err != nil {
			return nil, fmt.Errorf("minting relay token: %w", err)
		}
		opts = append(opts, relay.WithToken(token))
	}
	return relay.Dial(addr, opts...)
}

type options struct {
	addr    string
	output  string
	envFile string
}

// session is the per-invocation state built by the root command.
type session struct {
	opts   *options
	cfg    *config.Config
	relay  Relay
	board  *board.Board
	logger *zap.Logger
}

func (s *session) close() {
	if s.relay != nil {
		_ = s.relay.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// NewRootCmd builds the todo command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *session) {
	opts := &options{}
	s := &session{opts: opts}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "Manage the TodoDesk task list",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}

			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			s.cfg = cfg

			// The CLI only logs warnings and failures, to stderr.
			logger, err := logging.New(cfg.Environment, "warn", cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			s.logger = logger

			addr := opts.addr
			if addr == "" {
				addr = cfg.RelayAddr
			}
			r, err := connect(cfg, addr)
			if err != nil {
				return fmt.Errorf("connecting to relay at %s: %w", addr, err)
			}
			s.relay = r
			s.board = board.New(r, logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.addr, "addr", "", "relay address (default from RELAY_ADDR)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "output format: table, yaml, json")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file to load (default from TODO_ENV_FILE)")

	root.AddCommand(
		newListCmd(s),
		newAddCmd(s),
		newToggleCmd(s),
		newEditCmd(s),
		newRemoveCmd(s),
		newMoveCmd(s),
		newClearCmd(s),
		newStatusCmd(s),
	)
	return root, s
}

// Execute runs the CLI. With no args it uses the process arguments.
func Execute(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	root, s := newRootCmd()
	defer s.close()
	root.SetOut(stdout)
	root.SetErr(stderr)
	if len(args) > 0 {
		root.SetArgs(args)
	}
	return root.ExecuteContext(ctx)
}

func callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), callTimeout)
}
