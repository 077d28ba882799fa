package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/banshee-data/pose.report/internal/config"
	"github.com/banshee-data/pose.report/internal/fsutil"
	"github.com/banshee-data/pose.report/internal/monitoring"
	"github.com/banshee-data/pose.report/internal/pose/debug"
	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l5match"
	"github.com/banshee-data/pose.report/internal/pose/monitor"
	"github.com/banshee-data/pose.report/internal/pose/pipeline"
	"github.com/banshee-data/pose.report/internal/pose/storage/sqlite"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// loadTuning reads path, or returns an empty config (all defaults) when path
// is empty.
func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// debugDir picks the debug output directory: the flag wins, then the tuning
// config when visualisation is enabled there.
func debugDir(flagDir string, tc *config.TuningConfig) string {
	if flagDir != "" {
		return flagDir
	}
	if tc.GetDebugVisualisationEnabled() {
		return tc.GetDebugVisualisationOutputPath()
	}
	return ""
}

func newDecoder(tc *config.TuningConfig, dir string) (*pipeline.Decoder, error) {
	var opts []pipeline.Option
	if dir != "" {
		w, err := debug.NewWriter(fsutil.OSFileSystem{}, dir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithObserver(w))
		monitoring.Logf("debug plots will be written to %s", dir)
	}
	return pipeline.NewDecoder(pipeline.ConfigFromTuning(tc), opts...)
}

func openStore(path string) (*sqlite.Store, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := store.MigrateUp(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// readTensor reads an envelope from path, or from stdin when path is "-".
func readTensor(e env, path string) (*l1tensor.Tensor, error) {
	if path == "-" {
		return l1tensor.DecodeEnvelope(e.stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tensor: %w", err)
	}
	defer f.Close()
	t, err := l1tensor.DecodeEnvelope(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func runDecode(ctx context.Context, e env, args []string) error {
	fset := newFlagSet("decode", e)
	in := fset.String("in", "-", "Tensor envelope JSON file, - for stdin")
	configPath := fset.String("config", os.Getenv("POSE_CONFIG"), "Tuning config JSON")
	dbPath := fset.String("db", os.Getenv("POSE_DB"), "Store the decoded frame in this database")
	dir := fset.String("debug-dir", "", "Write debug plots to this directory")
	source := fset.String("source", "", "Frame source label (default: the input path)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	tc, err := loadTuning(*configPath)
	if err != nil {
		return err
	}
	d, err := newDecoder(tc, debugDir(*dir, tc))
	if err != nil {
		return err
	}
	t, err := readTensor(e, *in)
	if err != nil {
		return err
	}
	res, err := d.DecodeContext(ctx, t)
	if err != nil {
		return err
	}
	monitoring.Logf("decoded %d bodies from %d parts and %d limbs in %v",
		res.Stats.Bodies, res.Stats.Parts, res.Stats.Limbs, res.Stats.Total())

	if *dbPath != "" {
		store, err := openStore(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		label := *source
		if label == "" {
			label = *in
		}
		id, err := store.SaveFrame(label, res.Height, res.Width, res.Bodies)
		if err != nil {
			return err
		}
		monitoring.Logf("stored frame %s", id)
	}

	return pipeline.EncodeBodies(e.stdout, res.Bodies)
}

// matchEntry is one row of the match output. Previous is -1 and Distance is
// omitted when the body has no partner in the previous frame.
type matchEntry struct {
	Body     int      `json:"body"`
	Previous int      `json:"previous"`
	Distance *float64 `json:"distance,omitempty"`
}

func runMatch(ctx context.Context, e env, args []string) error {
	fset := newFlagSet("match", e)
	a := fset.String("a", "", "Previous frame tensor envelope (required)")
	b := fset.String("b", "", "Current frame tensor envelope (required)")
	configPath := fset.String("config", os.Getenv("POSE_CONFIG"), "Tuning config JSON")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *a == "" || *b == "" {
		return errors.New("match: -a and -b are required")
	}

	tc, err := loadTuning(*configPath)
	if err != nil {
		return err
	}
	d, err := newDecoder(tc, "")
	if err != nil {
		return err
	}

	var results [2]*pipeline.Result
	for i, path := range []string{*a, *b} {
		t, err := readTensor(e, path)
		if err != nil {
			return err
		}
		if results[i], err = d.DecodeContext(ctx, t); err != nil {
			return err
		}
	}
	previous, current := results[0].Bodies, results[1].Bodies

	m := l5match.NewMatcher(tc.GetMatchingBoundingBoxSize())
	assignment := m.AssignBodies(previous, current, tc.GetMatchingMaxDistance())
	out := make([]matchEntry, len(current))
	for i, j := range assignment {
		out[i] = matchEntry{Body: i, Previous: j}
		if j >= 0 {
			dist := m.BodyDistance(current[i], previous[j])
			out[i].Distance = &dist
		}
	}
	return writeJSON(e.stdout, out)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServe(ctx context.Context, e env, args []string) error {
	fset := newFlagSet("serve", e)
	listen := fset.String("listen", envOr("POSE_LISTEN", ":8090"), "HTTP listen address")
	configPath := fset.String("config", os.Getenv("POSE_CONFIG"), "Tuning config JSON")
	dbPath := fset.String("db", os.Getenv("POSE_DB"), "Store decoded frames in this database")
	dir := fset.String("debug-dir", "", "Write and serve debug plots from this directory")
	if err := fset.Parse(args); err != nil {
		return err
	}

	tc, err := loadTuning(*configPath)
	if err != nil {
		return err
	}
	plots := debugDir(*dir, tc)
	d, err := newDecoder(tc, plots)
	if err != nil {
		return err
	}

	cfg := monitor.WebServerConfig{Address: *listen, Decoder: d, DebugDir: plots}
	if *dbPath != "" {
		store, err := openStore(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Store = store
	}

	ws, err := monitor.NewWebServer(cfg)
	if err != nil {
		return err
	}
	return ws.Start(ctx)
}

func runMigrate(e env, args []string) error {
	fset := newFlagSet("migrate", e)
	dbPath := fset.String("db", os.Getenv("POSE_DB"), "Pose database path (required)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return errors.New("migrate: -db is required")
	}
	action := "up"
	if fset.NArg() > 0 {
		action = fset.Arg(0)
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch action {
	case "up":
		if err := store.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := store.MigrateDown(); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("migrate: unknown action %q (want up, down or version)", action)
	}

	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "version %d dirty=%t\n", v, dirty)
	return nil
}
