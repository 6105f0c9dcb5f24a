package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/spf13/cobra"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/call"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/config"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/media"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/negotiation"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/roomname"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/session"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/signalclient"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/ui"
)

var (
	flagRoom      string
	flagIdentity  string
	flagServer    string
	flagSTUN      string
	flagTURN      string
	flagTURNUser  string
	flagTURNPass  string
	flagRelay     bool
	flagCall      bool
	flagNoAudio   bool
	flagNoVideo   bool
	flagRecordDir string
	flagCooldown  time.Duration
	flagPlain     bool
	flagGuest     bool
)

var joinCmd = &cobra.Command{
	Use:     "join",
	Aliases: []string{"j"},
	Short:   "Join a room and start a call with the other participant",
	Long: `Join a room on the signaling server. When the second participant arrives
the call is placed (with --call) or answered automatically.

Examples:
  videocall join --identity alice@example.com --room standup
  videocall join -i bob@example.com -r standup --call
  videocall join -i carol@example.com --record-dir ./recordings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(config.Options{
			ServerURL:           flagServer,
			Identity:            flagIdentity,
			Room:                flagRoom,
			STUNServer:          flagSTUN,
			TURNServer:          flagTURN,
			TURNUser:            flagTURNUser,
			TURNPass:            flagTURNPass,
			ForceRelay:          flagRelay,
			NegotiationCooldown: flagCooldown,
			AutoCall:            flagCall,
			NoAudio:             flagNoAudio,
			NoVideo:             flagNoVideo,
			RecordDir:           flagRecordDir,
		}, flagGuest)
		if err != nil {
			return err
		}
		return joinRoom(cmd.Context(), cfg)
	},
}

// LoadConfig loads client configuration and fills in a room name when none
// was given. With guest set, a missing identity is generated instead of
// rejected.
func LoadConfig(opts config.Options, guest bool) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Identity == "" && guest {
		cfg.Identity = "guest-" + petname.Generate(2, "-")
	}
	if cfg.Identity == "" {
		return nil, errors.New("an identity is required (--identity, IDENTITY or --guest)")
	}

	if !cfg.ForceRelay && cfg.TURNServer != "" && config.ShouldForceRelay() {
		slog.Debug("VPN or CGNAT detected, forcing relay")
		cfg.ForceRelay = true
	}

	if cfg.Room == "" {
		cfg.Room, err = roomname.Generate(nil)
		if err != nil {
			return nil, fmt.Errorf("generate room name: %w", err)
		}
	}

	return cfg, nil
}

func joinRoom(ctx context.Context, cfg *config.Config) error {
	fmt.Println(ui.RoomInfo{Room: cfg.Room, Identity: cfg.Identity, Server: cfg.ServerURL}.View())
	fmt.Println()

	sp := ui.NewConnectionSpinner("Connecting to signaling server...")
	sp.Start()
	client := signalclient.NewClient(cfg.ServerURL, nil, slog.Default())
	if err := client.Connect(ctx); err != nil {
		sp.Error("Could not reach " + cfg.ServerURL)
		return fmt.Errorf("connect to server: %w", err)
	}
	sp.Success("Connected to signaling server")
	defer client.Close()

	api, err := session.NewAPI(slog.Default())
	if err != nil {
		return err
	}
	engine := session.NewEngine(session.NewPionFactory(api, session.ICEConfiguration(cfg)), slog.Default())

	var sink media.Sink = media.DiscardSink{}
	if cfg.RecordDir != "" {
		sink = &media.RecordingSink{Dir: cfg.RecordDir, Logger: slog.Default()}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var observer call.Observer = printObserver{}
	if !flagPlain {
		status := ui.NewStatusUI(cfg.Room, cfg.Identity, cancel)
		status.Start()
		defer status.Stop()
		observer = status
	}

	c := call.New(call.Options{
		Identity: cfg.Identity,
		Room:     cfg.Room,
		AutoCall: cfg.AutoCall,
		Signaler: client,
		Engine:   engine,
		Gate:     negotiation.NewGate(negotiation.WithCooldown(cfg.NegotiationCooldown)),
		Capturer: &media.StaticCapturer{Audio: cfg.Audio, Video: cfg.Video, Silence: true},
		Sink:     sink,
		Observer: observer,
		Logger:   slog.Default(),
	})

	runErr := c.Run(ctx)
	cancel()

	if s, ok := observer.(*ui.StatusUI); ok {
		s.Stop()
	}

	fmt.Println()
	ui.RenderCallSummary("📊 Call Summary", summaryFromStats(c.Stats(), time.Now()))

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	if errors.Is(runErr, call.ErrSignalingClosed) {
		return fmt.Errorf("call ended, signaling server went away: %w", runErr)
	}
	return runErr
}

func summaryFromStats(s call.Stats, now time.Time) ui.CallSummary {
	peer := s.PeerIdentity
	if peer == "" {
		peer = s.PeerID
	}
	return ui.CallSummary{
		Room:           s.Room,
		Peer:           peer,
		State:          s.State,
		Duration:       s.Duration(now),
		Offers:         s.OffersSent,
		Answers:        s.AnswersSent,
		Renegotiations: s.Renegotiations,
		Dropped:        s.RenegotiationsDropped,
		CandidatesOut:  s.CandidatesSent,
		CandidatesIn:   s.CandidatesReceived,
		RemoteTracks:   s.RemoteTracks,
		Transports:     s.Transports,
		Errors:         s.Errors,
	}
}

// printObserver reports progress as plain lines when the live view is off.
type printObserver struct{}

func (printObserver) Joined(room, identity string) {
	ui.PrintSuccessf("Joined %s as %s", room, identity)
}

func (printObserver) PeerJoined(identity, connectionID string) {
	ui.PrintInfof("%s joined (%s)", identity, connectionID)
}

func (printObserver) Calling(peer string) { ui.PrintInfof("Calling %s...", peer) }

func (printObserver) IncomingCall(peer string) { ui.PrintInfof("Incoming call from %s", peer) }

func (printObserver) Connected(peer string) { ui.PrintSuccessf("Connected to %s", peer) }

func (printObserver) StateChanged(string) {}

func (printObserver) RemoteTrack(kind, codec string) {
	ui.PrintInfof("Receiving %s (%s)", kind, codec)
}

func (printObserver) Error(err error) { ui.PrintWarning(err.Error()) }

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVarP(&flagRoom, "room", "r", "", "Room to join (random when empty)")
	joinCmd.Flags().StringVarP(&flagIdentity, "identity", "i", "", "Identity announced to the peer, e.g. an email")
	joinCmd.Flags().StringVar(&flagServer, "server", "", "Signaling server websocket URL")
	joinCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server(s), comma separated")
	joinCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	joinCmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	joinCmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	joinCmd.Flags().BoolVar(&flagRelay, "relay", false, "Force relay mode")
	joinCmd.Flags().BoolVarP(&flagCall, "call", "c", false, "Call the peer as soon as it joins")
	joinCmd.Flags().BoolVar(&flagNoAudio, "no-audio", false, "Do not send audio")
	joinCmd.Flags().BoolVar(&flagNoVideo, "no-video", false, "Do not send video")
	joinCmd.Flags().StringVar(&flagRecordDir, "record-dir", "", "Write the peer's audio and video to this directory")
	joinCmd.Flags().DurationVar(&flagCooldown, "cooldown", 0, "Minimum spacing between renegotiation offers")
	joinCmd.Flags().BoolVar(&flagGuest, "guest", false, "Join under a generated guest identity when none is given")
	joinCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print plain progress lines instead of the live view")
}
