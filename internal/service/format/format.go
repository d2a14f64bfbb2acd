// Package format переводит markdown ответов моделей в разметку чата.
package format

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type style struct {
	bold, italic, code string
	fence              string
	bullet             string
	escape             func(string) string
	link               func(dest, label string) string
	quote              string
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var slackStyle = style{
	bold:   "*",
	italic: "_",
	code:   "`",
	fence:  "```",
	bullet: "• ",
	escape: slackEscaper.Replace,
	link: func(dest, label string) string {
		if label == "" || label == dest {
			return "<" + dest + ">"
		}
		return "<" + dest + "|" + label + ">"
	},
	quote: "> ",
}

var plainStyle = style{
	bullet: "- ",
	escape: func(s string) string { return s },
	link: func(dest, label string) string {
		if label == "" || label == dest {
			return dest
		}
		return label + " (" + dest + ")"
	},
}

// Slack переводит markdown в mrkdwn Slack: **x** → *x*, *x* → _x_, списки → •, [t](u) → <u|t>.
func Slack(md string) string { return render(md, slackStyle) }

// Plain убирает разметку, оставляя текст; для чатов без форматирования.
func Plain(md string) string { return render(md, plainStyle) }

type renderer struct {
	src   []byte
	st    style
	sb    strings.Builder
	lists []int // номер следующего пункта; -1 для маркированного списка
	quote int
}

func render(md string, st style) string {
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	r := &renderer{src: src, st: st}
	if err := ast.Walk(doc, r.walk); err != nil {
		return md
	}
	return strings.TrimRight(r.sb.String(), "\n")
}

func (r *renderer) write(s string) { r.sb.WriteString(s) }

func (r *renderer) newline() {
	s := r.sb.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		r.write("\n")
	}
}

// blockStart переводит строку перед блоком; блоки верхнего уровня разделяются пустой строкой.
func (r *renderer) blockStart(n ast.Node) {
	if _, ok := n.Parent().(*ast.ListItem); ok && n.PreviousSibling() == nil {
		return
	}
	r.separate(n)
	if r.quote > 0 {
		r.write(strings.Repeat(r.st.quote, r.quote))
	}
}

func (r *renderer) separate(n ast.Node) {
	if r.sb.Len() == 0 {
		return
	}
	r.newline()
	if n.Parent().Kind() == ast.KindDocument && n.PreviousSibling() != nil {
		r.write("\n")
	}
}

func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch v := n.(type) {
	case *ast.Document:
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			r.blockStart(n)
		}
	case *ast.Heading:
		if entering {
			r.blockStart(n)
			r.write(r.st.bold)
		} else {
			r.write(r.st.bold)
		}
	case *ast.Blockquote:
		if entering {
			r.separate(n)
			r.quote++
		} else {
			r.quote--
		}
	case *ast.ThematicBreak:
		if entering {
			r.blockStart(n)
			r.write("---")
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			r.blockStart(n)
			r.codeBlock(n)
		}
		return ast.WalkSkipChildren, nil
	case *ast.HTMLBlock:
		if entering {
			r.blockStart(n)
			r.lines(n, r.st.escape)
		}
		return ast.WalkSkipChildren, nil
	case *ast.List:
		if entering {
			start := -1
			if v.IsOrdered() {
				start = v.Start
			}
			r.lists = append(r.lists, start)
			if len(r.lists) == 1 {
				r.blockStart(n)
			}
		} else {
			r.lists = r.lists[:len(r.lists)-1]
		}
	case *ast.ListItem:
		if entering {
			r.newline()
			depth := len(r.lists)
			r.write(strings.Repeat("  ", depth-1))
			if next := r.lists[depth-1]; next >= 0 {
				r.write(strconv.Itoa(next) + ". ")
				r.lists[depth-1]++
			} else {
				r.write(r.st.bullet)
			}
		}
	case *ast.Emphasis:
		mark := r.st.italic
		if v.Level >= 2 {
			mark = r.st.bold
		}
		r.write(mark)
	case *ast.CodeSpan:
		r.write(r.st.code)
	case *ast.Text:
		if !entering {
			break
		}
		r.write(r.st.escape(string(v.Segment.Value(r.src))))
		if v.SoftLineBreak() || v.HardLineBreak() {
			r.write("\n")
			if r.quote > 0 {
				r.write(strings.Repeat(r.st.quote, r.quote))
			}
		}
	case *ast.String:
		if entering {
			r.write(r.st.escape(string(v.Value)))
		}
	case *ast.Link:
		if entering {
			r.write(r.st.link(string(v.Destination), r.st.escape(plainText(v, r.src))))
		}
		return ast.WalkSkipChildren, nil
	case *ast.AutoLink:
		if entering {
			r.write(r.st.link(string(v.URL(r.src)), ""))
		}
		return ast.WalkSkipChildren, nil
	case *ast.Image:
		if entering {
			r.write(r.st.link(string(v.Destination), r.st.escape(plainText(v, r.src))))
		}
		return ast.WalkSkipChildren, nil
	case *ast.RawHTML:
		if entering {
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				r.write(r.st.escape(string(seg.Value(r.src))))
			}
		}
	}
	return ast.WalkContinue, nil
}

func (r *renderer) codeBlock(n ast.Node) {
	if r.st.fence != "" {
		r.write(r.st.fence + "\n")
	}
	r.lines(n, r.st.escape)
	if r.st.fence != "" {
		r.newline()
		r.write(r.st.fence)
	}
}

func (r *renderer) lines(n ast.Node, escape func(string) string) {
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		r.write(escape(string(seg.Value(r.src))))
	}
}

// plainText собирает текст потомков без разметки.
func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				sb.WriteString(" ")
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
