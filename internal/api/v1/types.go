// Package v1 defines the player RPC procedures and their message types.
// Messages are plain structs carried by the JSON codec; there is no IDL.
package v1

// Procedure paths, in Connect's /Service/Method form.
const (
	ProcedureAdd          = "/qplay.v1.PlayerService/Add"
	ProcedureList         = "/qplay.v1.PlayerService/List"
	ProcedureRemove       = "/qplay.v1.PlayerService/Remove"
	ProcedureMove         = "/qplay.v1.PlayerService/Move"
	ProcedureClear        = "/qplay.v1.PlayerService/Clear"
	ProcedurePlay         = "/qplay.v1.PlayerService/Play"
	ProcedurePause        = "/qplay.v1.PlayerService/Pause"
	ProcedureResume       = "/qplay.v1.PlayerService/Resume"
	ProcedureNext         = "/qplay.v1.PlayerService/Next"
	ProcedurePrevious     = "/qplay.v1.PlayerService/Previous"
	ProcedureJump         = "/qplay.v1.PlayerService/Jump"
	ProcedureSetVolume    = "/qplay.v1.PlayerService/SetVolume"
	ProcedureStatus       = "/qplay.v1.PlayerService/Status"
	ProcedureLoadPlaylist = "/qplay.v1.PlayerService/LoadPlaylist"
	ProcedureSavePlaylist = "/qplay.v1.PlayerService/SavePlaylist"
	ProcedureWatch        = "/qplay.v1.PlayerService/Watch"
)

// TrackInfo describes one queued track.
type TrackInfo struct {
	Index      int    `json:"index"`
	Path       string `json:"path"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	Format     string `json:"format,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// AddRequest adds a source to the queue. A negative position appends.
type AddRequest struct {
	Path     string `json:"path"`
	Position int    `json:"position"`
}

// AddResponse reports the inserted track.
type AddResponse struct {
	Index int       `json:"index"`
	Track TrackInfo `json:"track"`
}

// ListRequest requests the queue snapshot.
type ListRequest struct{}

// ListResponse carries the queue in playback order.
type ListResponse struct {
	Tracks []TrackInfo `json:"tracks"`
	Cursor int         `json:"cursor"`
	State  string      `json:"state"`
}

// RemoveRequest removes the track at Index.
type RemoveRequest struct {
	Index int `json:"index"`
}

// RemoveResponse reports the removed track.
type RemoveResponse struct {
	Track TrackInfo `json:"track"`
}

// MoveRequest relocates a track.
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// MoveResponse is empty.
type MoveResponse struct{}

// ClearRequest empties the queue.
type ClearRequest struct{}

// ClearResponse is empty.
type ClearResponse struct{}

// TransportRequest is the empty request shared by the transport commands.
type TransportRequest struct{}

// JumpRequest plays the track at Index.
type JumpRequest struct {
	Index int `json:"index"`
}

// VolumeRequest sets the normalized volume.
type VolumeRequest struct {
	Level float64 `json:"level"`
}

// VolumeResponse echoes the stored volume.
type VolumeResponse struct {
	Level float64 `json:"level"`
}

// StatusRequest requests the playback snapshot.
type StatusRequest struct{}

// StatusResponse is the playback snapshot. It is also the response of every
// transport command.
type StatusResponse struct {
	State       string     `json:"state"`
	Track       *TrackInfo `json:"track,omitempty"`
	Index       int        `json:"index"`
	ElapsedMs   int64      `json:"elapsed_ms"`
	Volume      float64    `json:"volume"`
	QueueLength int        `json:"queue_length"`
}

// LoadPlaylistRequest imports an M3U playlist into the queue.
type LoadPlaylistRequest struct {
	Path string `json:"path"`
}

// LoadPlaylistResponse reports the import outcome.
type LoadPlaylistResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// SavePlaylistRequest exports the queue as an M3U playlist.
type SavePlaylistRequest struct {
	Path string `json:"path"`
}

// SavePlaylistResponse reports the number of entries written.
type SavePlaylistResponse struct {
	Saved int `json:"saved"`
}

// WatchRequest subscribes to playback events.
type WatchRequest struct{}

// Notification is one playback event on the Watch stream.
type Notification struct {
	SequenceNo uint64     `json:"sequence_no"`
	Type       string     `json:"type"`
	Track      *TrackInfo `json:"track,omitempty"`
	Index      int        `json:"index"`
	State      string     `json:"state"`
	Error      string     `json:"error,omitempty"`
}
