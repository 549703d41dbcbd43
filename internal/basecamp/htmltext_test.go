package basecamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ToPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only",
			in:   "   \n\t ",
			want: "",
		},
		{
			name: "plain text passes through",
			in:   "hello world",
			want: "hello world",
		},
		{
			name: "bold and link in paragraph",
			in:   `<p><strong>Hi</strong> <a href="https://x">there</a></p>`,
			want: "**Hi** [there](https://x)\n\n",
		},
		{
			name: "emphasis",
			in:   "<em>soon</em>",
			want: "*soon*",
		},
		{
			name: "headings",
			in:   "<h1>Title</h1><h2>Sub</h2>",
			want: "# Title\n\n## Sub\n\n",
		},
		{
			name: "unordered list",
			in:   "<ul><li>one</li><li>two</li></ul>",
			want: "- one\n- two\n",
		},
		{
			name: "ordered list",
			in:   "<ol><li>first</li><li>second</li></ol>",
			want: "1. first\n2. second\n",
		},
		{
			name: "inline code",
			in:   "run <code>make</code> now",
			want: "run `make` now",
		},
		{
			name: "code block",
			in:   "<pre>x := 1</pre>",
			want: "```\nx := 1\n```",
		},
		{
			name: "blockquote",
			in:   "<blockquote>said so</blockquote>",
			want: "> said so",
		},
		{
			name: "attachment placeholder",
			in:   `<bc-attachment filename="plan.pdf" content-type="application/pdf"></bc-attachment>`,
			want: "[Attachment: plan.pdf (application/pdf)]",
		},
		{
			name: "attachment without attributes",
			in:   "<bc-attachment></bc-attachment>",
			want: "[Attachment]",
		},
		{
			name: "mention placeholder",
			in:   "ping <mention><figure>Victor</figure></mention> please",
			want: "ping [@Victor] please",
		},
		{
			name: "gallery placeholder",
			in:   "<bc-gallery><img src=\"a.png\"></bc-gallery>",
			want: "[Gallery]",
		},
		{
			name: "unknown tag unwraps",
			in:   "<div><span>kept</span></div>",
			want: "kept",
		},
		{
			name: "line break",
			in:   "one<br>two",
			want: "one\ntwo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPlainText(tt.in))
		})
	}
}

func Test_ToPlainText_Invariants(t *testing.T) {
	t.Parallel()

	t.Run("no tags survive", func(t *testing.T) {
		inputs := []string{
			"<p>one</p><video controls></video>",
			"<table><tr><td>cell</td></tr></table>",
			"<p>unclosed <strong>bold",
		}

		for _, in := range inputs {
			got := ToPlainText(in)
			assert.NotContains(t, got, "<", "input %q leaked markup", in)
			assert.NotContains(t, got, ">", "input %q leaked markup", in)
		}
	})

	t.Run("blank runs collapse to one empty line", func(t *testing.T) {
		got := ToPlainText("<p>a</p><p></p><p>b</p>")

		assert.NotContains(t, got, "\n\n\n")
		assert.Contains(t, got, "a")
		assert.Contains(t, got, "b")
	})
}
