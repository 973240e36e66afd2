package vt100

import (
	"fmt"
	"strings"
)

var controlNames = [...]string{
	"NUL", "SOH", "STX", "ETX", "EOT", "ENQ", "ACK", "BEL", "BS", "TAB", "LF", "VT", "FF", "CR", "SO", "SI",
	"DLE", "DC1", "DC2", "DC3", "DC4", "NAK", "SYN", "ETB", "CAN", "EM", "SUB", "ESC", "FS", "GS", "RS", "US",
}

type byteClass int

const (
	classNone byteClass = iota
	classControl
	classPrinting
	classOther
)

// DescribeBytes renders raw terminal bytes for diagnostics.
// Control characters are spelled out by name, printable runs are kept together
// and anything else is shown in hex, for example "ESC [2J LF".
func DescribeBytes(b []byte) string {
	var sb strings.Builder
	last := classNone
	for _, c := range b {
		last = describeByte(&sb, last, c)
	}
	return strings.TrimPrefix(sb.String(), " ")
}

func describeByte(sb *strings.Builder, last byteClass, c byte) byteClass {
	switch {
	case c <= 0x1f:
		sb.WriteByte(' ')
		sb.WriteString(controlNames[c])
		return classControl
	case c == asciiDelete:
		sb.WriteString(" DEL")
		return classControl
	case c < asciiDelete:
		if last != classPrinting {
			sb.WriteByte(' ')
		}
		sb.WriteByte(c)
		return classPrinting
	default:
		fmt.Fprintf(sb, " 0x%x", c)
		return classOther
	}
}
