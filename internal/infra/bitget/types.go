package bitget

const (
	// PublicWSURL is the v2 public stream endpoint.
	PublicWSURL = "wss://ws.bitget.com/v2/ws/public"

	channelBooks1 = "books1"
)

type subscribeRequest struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

type subscribeArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstId   string `json:"instId"`
}

// bookResponse is a books1 push: the single best level of each side.
type bookResponse struct {
	Action string       `json:"action"`
	Arg    subscribeArg `json:"arg"`
	Data   []bookData   `json:"data"`
	Ts     int64        `json:"ts"`
}

type bookData struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
	Ts   string     `json:"ts"`
}
