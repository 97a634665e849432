package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/qplay/internal/api/v1"
)

// Client is the typed player client. It speaks the same JSON codec as the
// service, one connect client per procedure.
type Client struct {
	add          *connect.Client[v1.AddRequest, v1.AddResponse]
	list         *connect.Client[v1.ListRequest, v1.ListResponse]
	remove       *connect.Client[v1.RemoveRequest, v1.RemoveResponse]
	move         *connect.Client[v1.MoveRequest, v1.MoveResponse]
	clear        *connect.Client[v1.ClearRequest, v1.ClearResponse]
	play         *connect.Client[v1.TransportRequest, v1.StatusResponse]
	pause        *connect.Client[v1.TransportRequest, v1.StatusResponse]
	resume       *connect.Client[v1.TransportRequest, v1.StatusResponse]
	next         *connect.Client[v1.TransportRequest, v1.StatusResponse]
	previous     *connect.Client[v1.TransportRequest, v1.StatusResponse]
	jump         *connect.Client[v1.JumpRequest, v1.StatusResponse]
	setVolume    *connect.Client[v1.VolumeRequest, v1.VolumeResponse]
	status       *connect.Client[v1.StatusRequest, v1.StatusResponse]
	loadPlaylist *connect.Client[v1.LoadPlaylistRequest, v1.LoadPlaylistResponse]
	savePlaylist *connect.Client[v1.SavePlaylistRequest, v1.SavePlaylistResponse]
	watch        *connect.Client[v1.WatchRequest, v1.Notification]
}

// NewClient creates a player client for the server at baseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	codec := connect.WithCodec(jsonCodec{})
	return &Client{
		add:          connect.NewClient[v1.AddRequest, v1.AddResponse](httpClient, baseURL+v1.ProcedureAdd, codec),
		list:         connect.NewClient[v1.ListRequest, v1.ListResponse](httpClient, baseURL+v1.ProcedureList, codec),
		remove:       connect.NewClient[v1.RemoveRequest, v1.RemoveResponse](httpClient, baseURL+v1.ProcedureRemove, codec),
		move:         connect.NewClient[v1.MoveRequest, v1.MoveResponse](httpClient, baseURL+v1.ProcedureMove, codec),
		clear:        connect.NewClient[v1.ClearRequest, v1.ClearResponse](httpClient, baseURL+v1.ProcedureClear, codec),
		play:         connect.NewClient[v1.TransportRequest, v1.StatusResponse](httpClient, baseURL+v1.ProcedurePlay, codec),
		pause:        connect.NewClient[v1.TransportRequest, v1.StatusResponse](httpClient, baseURL+v1.ProcedurePause, codec),
		resume:       connect.NewClient[v1.TransportRequest, v1.StatusResponse](httpClient, baseURL+v1.ProcedureResume, codec),
		next:         connect.NewClient[v1.TransportRequest, v1.StatusResponse](httpClient, baseURL+v1.ProcedureNext, codec),
		previous:     connect.NewClient[v1.TransportRequest, v1.StatusResponse](httpClient, baseURL+v1.ProcedurePrevious, codec),
		jump:         connect.NewClient[v1.JumpRequest, v1.StatusResponse](httpClient, baseURL+v1.ProcedureJump, codec),
		setVolume:    connect.NewClient[v1.VolumeRequest, v1.VolumeResponse](httpClient, baseURL+v1.ProcedureSetVolume, codec),
		status:       connect.NewClient[v1.StatusRequest, v1.StatusResponse](httpClient, baseURL+v1.ProcedureStatus, codec),
		loadPlaylist: connect.NewClient[v1.LoadPlaylistRequest, v1.LoadPlaylistResponse](httpClient, baseURL+v1.ProcedureLoadPlaylist, codec),
		savePlaylist: connect.NewClient[v1.SavePlaylistRequest, v1.SavePlaylistResponse](httpClient, baseURL+v1.ProcedureSavePlaylist, codec),
		watch:        connect.NewClient[v1.WatchRequest, v1.Notification](httpClient, baseURL+v1.ProcedureWatch, codec),
	}
}

// Add queues a source. A negative position appends.
func (c *Client) Add(ctx context.Context, path string, position int) (*v1.AddResponse, error) {
	res, err := c.add.CallUnary(ctx, connect.NewRequest(&v1.AddRequest{Path: path, Position: position}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// List returns the queue snapshot.
func (c *Client) List(ctx context.Context) (*v1.ListResponse, error) {
	res, err := c.list.CallUnary(ctx, connect.NewRequest(&v1.ListRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Remove removes the track at index.
func (c *Client) Remove(ctx context.Context, index int) (*v1.RemoveResponse, error) {
	res, err := c.remove.CallUnary(ctx, connect.NewRequest(&v1.RemoveRequest{Index: index}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Move relocates a track.
func (c *Client) Move(ctx context.Context, from, to int) error {
	_, err := c.move.CallUnary(ctx, connect.NewRequest(&v1.MoveRequest{From: from, To: to}))
	return err
}

// Clear empties the queue.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.clear.CallUnary(ctx, connect.NewRequest(&v1.ClearRequest{}))
	return err
}

// Play starts or resumes playback.
func (c *Client) Play(ctx context.Context) (*v1.StatusResponse, error) {
	return transportCall(ctx, c.play)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) (*v1.StatusResponse, error) {
	return transportCall(ctx, c.pause)
}

// Resume resumes paused playback.
func (c *Client) Resume(ctx context.Context) (*v1.StatusResponse, error) {
	return transportCall(ctx, c.resume)
}

// Next plays the next track.
func (c *Client) Next(ctx context.Context) (*v1.StatusResponse, error) {
	return transportCall(ctx, c.next)
}

// Previous plays the previous track.
func (c *Client) Previous(ctx context.Context) (*v1.StatusResponse, error) {
	return transportCall(ctx, c.previous)
}

func transportCall(ctx context.Context, cl *connect.Client[v1.TransportRequest, v1.StatusResponse]) (*v1.StatusResponse, error) {
	res, err := cl.CallUnary(ctx, connect.NewRequest(&v1.TransportRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Jump plays the track at index.
func (c *Client) Jump(ctx context.Context, index int) (*v1.StatusResponse, error) {
	res, err := c.jump.CallUnary(ctx, connect.NewRequest(&v1.JumpRequest{Index: index}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// SetVolume sets the normalized volume.
func (c *Client) SetVolume(ctx context.Context, level float64) (*v1.VolumeResponse, error) {
	res, err := c.setVolume.CallUnary(ctx, connect.NewRequest(&v1.VolumeRequest{Level: level}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Status returns the playback snapshot.
func (c *Client) Status(ctx context.Context) (*v1.StatusResponse, error) {
	res, err := c.status.CallUnary(ctx, connect.NewRequest(&v1.StatusRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// LoadPlaylist imports an M3U playlist into the queue.
func (c *Client) LoadPlaylist(ctx context.Context, path string) (*v1.LoadPlaylistResponse, error) {
	res, err := c.loadPlaylist.CallUnary(ctx, connect.NewRequest(&v1.LoadPlaylistRequest{Path: path}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// SavePlaylist exports the queue as an M3U playlist.
func (c *Client) SavePlaylist(ctx context.Context, path string) (*v1.SavePlaylistResponse, error) {
	res, err := c.savePlaylist.CallUnary(ctx, connect.NewRequest(&v1.SavePlaylistRequest{Path: path}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Watch opens the event stream.
func (c *Client) Watch(ctx context.Context) (*connect.ServerStreamForClient[v1.Notification], error) {
	return c.watch.CallServerStream(ctx, connect.NewRequest(&v1.WatchRequest{}))
}
