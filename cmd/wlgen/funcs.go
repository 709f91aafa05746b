package main

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"deedles.dev/infolauncher/internal/xslices"
	"deedles.dev/infolauncher/protocol"
)

// initialisms are words that are written in all caps.
var initialisms = map[string]string{
	"id":  "ID",
	"fd":  "FD",
	"dnd": "DND",
}

type Context struct {
	Prefix   string
	Suffix   string
	IsClient bool
}

// ident converts an interface name into a Go identifier, stripping
// the prefix and suffix that every interface of the protocol shares.
func (ctx Context) ident(v string) string {
	v, _ = strings.CutPrefix(v, ctx.Prefix)
	v, _ = strings.CutSuffix(v, ctx.Suffix)
	return ctx.camel(v)
}

func (ctx Context) camel(v string) string {
	var buf strings.Builder
	buf.Grow(len(v))
	for _, word := range strings.Split(v, "_") {
		if word == "" {
			continue
		}
		if init, ok := initialisms[word]; ok {
			buf.WriteString(init)
			continue
		}

		c, size := utf8.DecodeRuneInString(word)
		buf.WriteRune(unicode.ToUpper(c))
		buf.WriteString(word[size:])
	}
	return buf.String()
}

func (ctx Context) unexport(v string) string {
	if len(v) == 0 {
		return ""
	}
	if strings.ToUpper(v) == v {
		return strings.ToLower(v)
	}

	c, size := utf8.DecodeRuneInString(v)
	if unicode.IsLower(c) {
		return v
	}

	var buf strings.Builder
	buf.Grow(len(v))
	buf.WriteRune(unicode.ToLower(c))
	buf.WriteString(v[size:])
	return buf.String()
}

func (ctx Context) unkeyword(v string) string {
	if token.IsKeyword(v) {
		return "_" + v
	}
	return v
}

// senders are the ops that this side sends.
func (ctx Context) senders(i protocol.Interface) []protocol.Op {
	if ctx.IsClient {
		return i.Requests
	}
	return i.Events
}

// listeners are the ops that this side receives.
func (ctx Context) listeners(i protocol.Interface) []protocol.Op {
	if ctx.IsClient {
		return i.Events
	}
	return i.Requests
}

func (ctx Context) goType(arg protocol.Arg) (string, error) {
	switch arg.Type {
	case "uint":
		if arg.Enum != "" {
			if inter, enum, ok := strings.Cut(arg.Enum, "."); ok {
				return ctx.ident(inter) + ctx.camel(enum), nil
			}
			return ctx.camel(arg.Enum), nil
		}
		return "uint32", nil
	case "int":
		return "int32", nil
	case "fixed":
		return "wire.Fixed", nil
	case "object":
		if arg.Interface == "" {
			return "uint32", nil
		}
		return "*" + ctx.ident(arg.Interface), nil
	case "new_id":
		if arg.Interface == "" {
			return "wire.NewID", nil
		}
		return "*" + ctx.ident(arg.Interface), nil
	case "string":
		return "string", nil
	case "array":
		return "[]byte", nil
	case "fd":
		return "*os.File", nil
	default:
		return "", fmt.Errorf("unknown type: %q", arg.Type)
	}
}

func (ctx Context) args(op protocol.Op) []protocol.Arg {
	return xslices.Filter(op.Args, func(arg protocol.Arg) bool { return !ctx.isRet(arg) })
}

func (ctx Context) returns(op protocol.Op) []protocol.Arg {
	return xslices.Filter(op.Args, ctx.isRet)
}

func (ctx Context) isRet(arg protocol.Arg) bool {
	return (arg.Type == "new_id") && (arg.Interface != "")
}

// signature renders op as a Go method signature.
func (ctx Context) signature(op protocol.Op) (string, error) {
	var sb strings.Builder
	sb.WriteString(ctx.camel(op.Name))
	sb.WriteByte('(')
	for i, arg := range ctx.args(op) {
		t, err := ctx.goType(arg)
		if err != nil {
			return "", fmt.Errorf("%v: %w", op.Name, err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v %v", ctx.unkeyword(ctx.unexport(ctx.camel(arg.Name))), t)
	}
	sb.WriteByte(')')

	rets := ctx.returns(op)
	if len(rets) > 0 {
		sb.WriteByte(' ')
		t, err := ctx.goType(rets[0])
		if err != nil {
			return "", fmt.Errorf("%v: %w", op.Name, err)
		}
		sb.WriteString(t)
	}
	return sb.String(), nil
}
