package geometry

// ExpandBox grows box by margin of its size on every side and clamps the
// result to a width x height image.
func ExpandBox(box FaceBox, width, height int, margin float64) FaceBox {
	offW := int(float64(box.Width) * margin)
	offH := int(float64(box.Height) * margin)

	x1 := max(0, box.X-offW)
	y1 := max(0, box.Y-offH)
	x2 := min(width, box.X+box.Width+offW)
	y2 := min(height, box.Y+box.Height+offH)

	return FaceBox{X: x1, Y: y1, Width: max(0, x2-x1), Height: max(0, y2-y1)}
}
