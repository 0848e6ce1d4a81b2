package main

import "testing"

func TestCodeKey(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"line and block comments", "x := 1 // set\n/* block */ y := 2", "x := 1 y := 2"},
		{"hash comment", "# comment\nprint('A')", "print('a')"},
		{"whitespace", "  a\t\tb\n\n c ", "a b c"},
	}
	for _, tc := range cases {
		if got := codeKey(tc.in); got != tc.want {
			t.Fatalf("%s: want=%q got=%q", tc.name, tc.want, got)
		}
	}
}

func TestFindCodeBlocks(t *testing.T) {
	blocks := findCodeBlocks("Intro\n```Go\nx := 1\n```\ntext\n```\nplain\n```")
	if len(blocks) != 2 {
		t.Fatalf("want 2 blocks got %d", len(blocks))
	}
	if blocks[0].lang != "go" || blocks[0].raw != "x := 1" {
		t.Fatalf("first block: %+v", blocks[0])
	}
	if blocks[1].lang != "" || blocks[1].raw != "plain" {
		t.Fatalf("second block: %+v", blocks[1])
	}
}

func TestResolveDuplicateCodeTieKeepsEarlier(t *testing.T) {
	in := "```py\nprint(1)\n```\nA\n```py\nprint(1)\n```"
	want := "```py\nprint(1)\n```\nA\n"
	if got := resolveDuplicateCode(in); got != want {
		t.Fatalf("want=%q got=%q", want, got)
	}
}

func TestResolveDuplicateCodeLaterLongerWins(t *testing.T) {
	in := "```js\nf()\n```\n```js\nf()\ng()\n```"
	want := "\n```js\nf()\ng()\n```"
	if got := resolveDuplicateCode(in); got != want {
		t.Fatalf("want=%q got=%q", want, got)
	}
}

func TestResolveDuplicateCodeIgnoresOtherLanguages(t *testing.T) {
	in := "```go\nfmt.Println(1)\n```\n\n```python\nfmt.Println(1)\n```"
	if got := resolveDuplicateCode(in); got != in {
		t.Fatalf("want=%q got=%q", in, got)
	}
}

func TestResolveDuplicateCodeCommentOnlyDifference(t *testing.T) {
	in := "```go\n// first\nx := 1\n```\n```go\nx := 1 // again\n```"
	want := "```go\n// first\nx := 1\n```\n"
	if got := resolveDuplicateCode(in); got != want {
		t.Fatalf("want=%q got=%q", want, got)
	}
}
