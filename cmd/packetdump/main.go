// Command packetdump decodes hex encoded frame bodies and prints them, or
// lists the packets bound in a registry.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"cobble/protocol"
	"cobble/protocol/packets"
)

func main() {
	var (
		phaseFlag = flag.String("phase", "play", "handshake, status, login or play")
		dirFlag   = flag.String("dir", "serverbound", "serverbound or clientbound")
		version   = flag.String("version", protocol.CurrentVersion.Name(), "protocol version number or release name")
		format    = flag.String("format", "json", "output format: json or msgpack")
		framed    = flag.Bool("framed", false, "input carries a VarInt length prefix")
		list      = flag.Bool("list", false, "list the registry instead of decoding")
	)
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, options{
		phase:   *phaseFlag,
		dir:     *dirFlag,
		version: *version,
		format:  *format,
		framed:  *framed,
		list:    *list,
		args:    flag.Args(),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "packetdump:", err)
		os.Exit(1)
	}
}

type options struct {
	phase, dir, version, format string
	framed, list                bool
	args                        []string
}

func run(in io.Reader, out io.Writer, opts options) error {
	var (
		phase protocol.Phase
		dir   protocol.Direction
	)
	if err := phase.UnmarshalText([]byte(opts.phase)); err != nil {
		return err
	}
	if err := dir.UnmarshalText([]byte(opts.dir)); err != nil {
		return err
	}
	v, err := protocol.ParseVersion(opts.version)
	if err != nil {
		return err
	}
	reg, err := packets.Registry(phase, dir)
	if err != nil {
		return err
	}
	if opts.list {
		listRegistry(out, reg)
		return nil
	}

	var ser protocol.Serializer
	switch opts.format {
	case "json":
		ser = protocol.JSON
	case "msgpack":
		ser = protocol.MSGPACK
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	inputs := opts.args
	if len(inputs) == 0 {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := sc.Err(); err != nil {
			return err
		}
	}

	for _, input := range inputs {
		if err := dump(out, reg, ser, v, input, opts.framed); err != nil {
			return err
		}
	}
	return nil
}

func dump(out io.Writer, reg *protocol.Registry, ser protocol.Serializer, v protocol.ProtocolVersion, input string, framed bool) error {
	data, err := hex.DecodeString(strings.ReplaceAll(input, " ", ""))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	if framed {
		r := protocol.NewReader(data)
		length, err := protocol.ReadVarInt(r, v)
		if err != nil {
			return fmt.Errorf("read frame length: %w", err)
		}
		body, err := r.ReadN(int(length))
		if err != nil {
			return fmt.Errorf("read frame body: %w", err)
		}
		data = body
	}

	e, err := reg.Unmarshal(data, v)
	if err != nil {
		return err
	}
	encoded, err := ser.Marshal(e)
	if err != nil {
		return err
	}
	if ser == protocol.JSON {
		_, err = fmt.Fprintf(out, "%s\n", encoded)
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", hex.EncodeToString(encoded))
	return err
}

func listRegistry(out io.Writer, reg *protocol.Registry) {
	tw := tablewriter.NewWriter(out)
	tw.SetHeader([]string{"ID", "Packet", "Fields"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, b := range reg.Bindings() {
		var fields []string
		for _, f := range b.Schema().Fields() {
			fields = append(fields, f.Name+":"+f.Type.Name())
		}
		tw.Append([]string{fmt.Sprintf("0x%02x", b.ID), b.Name, strings.Join(fields, " ")})
	}
	tw.Render()
}
