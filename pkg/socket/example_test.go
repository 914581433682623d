package socket_test

import (
	"fmt"

	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/socket"
)

func ExampleResolve() {
	box := geom.Box{X: 0, Y: 0, W: 100, H: 50}
	target := geom.Pt(400, 30)

	pt, side, _ := socket.Resolve(box, socket.Auto, &target)
	fmt.Println(side, pt.X, pt.Y)
	// Output: right 100 25
}
