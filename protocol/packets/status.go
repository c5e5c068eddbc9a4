package packets

import (
	"github.com/json-iterator/go"

	"cobble/protocol"
	cb "cobble/protocol/packets/clientbound"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusJSON is the document carried by a status Response.
type StatusJSON struct {
	Version     StatusVersion `json:"version"`
	Players     StatusPlayers `json:"players"`
	Description ChatText      `json:"description"`
	Favicon     string        `json:"favicon,omitempty"`
}

type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type StatusPlayers struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []PlayerSample `json:"sample,omitempty"`
}

type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ChatText is the plain-text form of a chat component.
type ChatText struct {
	Text string `json:"text"`
}

func NewStatus(v protocol.ProtocolVersion, motd string, maxPlayers, online int) StatusJSON {
	return StatusJSON{
		Version:     StatusVersion{Name: v.Name(), Protocol: int32(v)},
		Players:     StatusPlayers{Max: maxPlayers, Online: online},
		Description: ChatText{Text: motd},
	}
}

func (s StatusJSON) Response() (cb.Response, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return cb.Response{}, err
	}
	return cb.Response{JSONResponse: string(b)}, nil
}

func ParseStatus(r cb.Response) (StatusJSON, error) {
	var s StatusJSON
	err := json.UnmarshalFromString(r.JSONResponse, &s)
	return s, err
}

// Chat renders a plain chat component, as used by Disconnect reasons.
func Chat(text string) string {
	b, _ := json.Marshal(ChatText{Text: text})
	return string(b)
}
