// Package main provides the playback control CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/qplay/internal/api/connect"
	v1 "github.com/osa030/qplay/internal/api/v1"
)

var (
	app    = kingpin.New("qplayctl", "qplay playback control client")
	server = app.Flag("server", "Daemon address").Default("http://127.0.0.1:4747").String()

	// queue commands
	addCmd  = app.Command("add", "Add a track to the queue")
	addPath = addCmd.Arg("path", "Audio file path").Required().String()
	addPos  = addCmd.Flag("at", "Insert position (default: append)").Default("-1").Int()

	listCmd = app.Command("list", "Show the queue")

	removeCmd   = app.Command("remove", "Remove a track from the queue")
	removeIndex = removeCmd.Arg("index", "Queue index").Required().Int()

	moveCmd  = app.Command("move", "Move a track within the queue")
	moveFrom = moveCmd.Arg("from", "Current index").Required().Int()
	moveTo   = moveCmd.Arg("to", "Target index").Required().Int()

	clearCmd = app.Command("clear", "Empty the queue")

	// transport commands
	playCmd     = app.Command("play", "Start or resume playback")
	pauseCmd    = app.Command("pause", "Pause playback")
	resumeCmd   = app.Command("resume", "Resume paused playback")
	nextCmd     = app.Command("next", "Play the next track")
	previousCmd = app.Command("previous", "Play the previous track")

	jumpCmd   = app.Command("jump", "Play the track at an index")
	jumpIndex = jumpCmd.Arg("index", "Queue index").Required().Int()

	volumeCmd   = app.Command("volume", "Set the volume (0.0 to 1.0)")
	volumeLevel = volumeCmd.Arg("level", "Volume level").Required().Float64()

	statusCmd = app.Command("status", "Show the playback status")

	// playlist commands
	loadCmd  = app.Command("load", "Load an M3U playlist into the queue")
	loadPath = loadCmd.Arg("path", "Playlist path").Required().String()

	saveCmd  = app.Command("save", "Save the queue as an M3U playlist")
	savePath = saveCmd.Arg("path", "Playlist path").Required().String()

	// watch command
	watchCmd = app.Command("watch", "Stream playback events")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server)
	ctx := context.Background()

	switch command {
	case addCmd.FullCommand():
		add(ctx, client, *addPath, *addPos)
	case listCmd.FullCommand():
		list(ctx, client)
	case removeCmd.FullCommand():
		remove(ctx, client, *removeIndex)
	case moveCmd.FullCommand():
		move(ctx, client, *moveFrom, *moveTo)
	case clearCmd.FullCommand():
		clear(ctx, client)
	case playCmd.FullCommand():
		transport(client.Play)(ctx)
	case pauseCmd.FullCommand():
		transport(client.Pause)(ctx)
	case resumeCmd.FullCommand():
		transport(client.Resume)(ctx)
	case nextCmd.FullCommand():
		transport(client.Next)(ctx)
	case previousCmd.FullCommand():
		transport(client.Previous)(ctx)
	case jumpCmd.FullCommand():
		jump(ctx, client, *jumpIndex)
	case volumeCmd.FullCommand():
		volume(ctx, client, *volumeLevel)
	case statusCmd.FullCommand():
		status(ctx, client)
	case loadCmd.FullCommand():
		load(ctx, client, *loadPath)
	case saveCmd.FullCommand():
		save(ctx, client, *savePath)
	case watchCmd.FullCommand():
		watch(ctx, client)
	}
}

// fail prints the error and exits. Argument and state errors exit 1; source,
// device, and transport errors exit 2.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	switch connect.CodeOf(err) {
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition:
		os.Exit(1)
	default:
		os.Exit(2)
	}
}

func add(ctx context.Context, client *apiconnect.Client, path string, pos int) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	resp, err := client.Add(ctx, path, pos)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Added [%d] %s\n", resp.Index, describeTrack(resp.Track))
}

func list(ctx context.Context, client *apiconnect.Client) {
	resp, err := client.List(ctx)
	if err != nil {
		fail(err)
	}
	if len(resp.Tracks) == 0 {
		fmt.Println("Queue is empty.")
		return
	}

	for _, t := range resp.Tracks {
		marker := "  "
		if t.Index == resp.Cursor {
			marker = stateMarker(resp.State)
		}
		fmt.Printf("%s[%d] %s%s\n", marker, t.Index, describeTrack(t), formatDuration(t.DurationMs))
	}
}

func remove(ctx context.Context, client *apiconnect.Client, index int) {
	resp, err := client.Remove(ctx, index)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Removed [%d] %s\n", index, describeTrack(resp.Track))
}

func move(ctx context.Context, client *apiconnect.Client, from, to int) {
	if err := client.Move(ctx, from, to); err != nil {
		fail(err)
	}
	fmt.Printf("Moved %d -> %d\n", from, to)
}

func clear(ctx context.Context, client *apiconnect.Client) {
	if err := client.Clear(ctx); err != nil {
		fail(err)
	}
	fmt.Println("Queue cleared.")
}

func transport(call func(context.Context) (*v1.StatusResponse, error)) func(context.Context) {
	return func(ctx context.Context) {
		resp, err := call(ctx)
		if err != nil {
			fail(err)
		}
		printStatus(resp)
	}
}

func jump(ctx context.Context, client *apiconnect.Client, index int) {
	resp, err := client.Jump(ctx, index)
	if err != nil {
		fail(err)
	}
	printStatus(resp)
}

func volume(ctx context.Context, client *apiconnect.Client, level float64) {
	resp, err := client.SetVolume(ctx, level)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Volume: %.0f%%\n", resp.Level*100)
}

func status(ctx context.Context, client *apiconnect.Client) {
	resp, err := client.Status(ctx)
	if err != nil {
		fail(err)
	}
	printStatus(resp)
}

func load(ctx context.Context, client *apiconnect.Client, path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	resp, err := client.LoadPlaylist(ctx, path)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Loaded: added=%d skipped=%d\n", resp.Added, resp.Skipped)
}

func save(ctx context.Context, client *apiconnect.Client, path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	resp, err := client.SavePlaylist(ctx, path)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Saved %d tracks to %s\n", resp.Saved, path)
}

func watch(ctx context.Context, client *apiconnect.Client) {
	stream, err := client.Watch(ctx)
	if err != nil {
		fail(err)
	}
	defer stream.Close()

	fmt.Println("Watching playback events. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg())
	}
	if err := stream.Err(); err != nil {
		fail(err)
	}
}

func printNotification(n *v1.Notification) {
	line := fmt.Sprintf("[%d] %s", n.SequenceNo, n.Type)
	if n.Track != nil {
		line += fmt.Sprintf(": [%d] %s", n.Index, describeTrack(*n.Track))
	}
	if n.Error != "" {
		line += fmt.Sprintf(" (%s)", n.Error)
	}
	fmt.Println(line)
}

func printStatus(s *v1.StatusResponse) {
	fmt.Printf("State:  %s\n", s.State)
	if s.Track != nil {
		fmt.Printf("Track:  [%d] %s\n", s.Index, describeTrack(*s.Track))
		fmt.Printf("Time:   %s%s\n", formatTime(s.ElapsedMs), formatDuration(s.Track.DurationMs))
	}
	fmt.Printf("Volume: %.0f%%\n", s.Volume*100)
	fmt.Printf("Queue:  %d tracks\n", s.QueueLength)
}

func describeTrack(t v1.TrackInfo) string {
	title := t.Title
	if title == "" {
		title = filepath.Base(t.Path)
	}
	if t.Artist != "" {
		return t.Artist + " - " + title
	}
	return title
}

func stateMarker(state string) string {
	switch state {
	case "playing":
		return "> "
	case "paused":
		return "= "
	default:
		return "* "
	}
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return " (" + formatTime(ms) + ")"
}

func formatTime(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
