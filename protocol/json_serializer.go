package protocol

import (
	"github.com/json-iterator/go"
)

var (
	JSON *JSONSerializer
)

func init() {
	JSON = &JSONSerializer{
		API: jsoniter.Config{
			EscapeHTML:  false,
			SortMapKeys: true,
		}.Froze(),
	}
}

type JSONSerializer struct {
	jsoniter.API
}

func (j *JSONSerializer) Marshal(e Envelope) ([]byte, error) {
	return j.API.Marshal(NewDump(e))
}

func (j *JSONSerializer) UnMarshal(bs []byte) (*Dump, error) {
	d := new(Dump)
	return d, j.API.Unmarshal(bs, d)
}
