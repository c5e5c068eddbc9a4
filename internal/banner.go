package internal

import (
	"strings"

	"cobble/protocol"
)

var (
	banner = "\n" +
		"            _     _     _      \n" +
		"   ___ ___ | |__ | |__ | | ___ \n" +
		"  / __/ _ \\| '_ \\| '_ \\| |/ _ \\\n" +
		" | (_| (_) | |_) | |_) | |  __/\n" +
		"  \\___\\___/|_.__/|_.__/|_|\\___|\n" +
		"                               \n"
)

func BannerString() string {
	sb := strings.Builder{}
	sb.WriteString(banner)
	sb.WriteString("Cobble :: Protocol:")
	sb.WriteString("\t")
	sb.WriteString(protocol.CurrentVersion.String())
	sb.WriteString("\n")
	return sb.String()
}
