package scene_test

import (
	"fmt"

	"github.com/matzehuels/leaderline/pkg/scene"
)

func ExampleParse() {
	s, err := scene.Parse([]byte(`
elements:
  - {id: api, x: 0, y: 0, w: 100, h: 40}
  - {id: db, x: 300, y: 0, w: 100, h: 40}
lines:
  - {from: "api:right", to: db, path: straight, middle_label: query}
`), scene.FormatYAML)
	if err != nil {
		fmt.Println(err)
		return
	}
	l := s.Lines[0]
	opts, _ := l.Options()
	fmt.Println(l.ID, l.From.Element, l.From.Socket, l.To.Element, opts.Path, opts.Labels.Middle.Text)
	// Output: line-1 api right db straight query
}
