package dataset

import (
	"image"
	"image/color"
	_ "image/png"
	"os"
)

// LoadPixels decodes an image and returns its rows of grayscale values
// scaled to [0, 1].
func LoadPixels(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	rows := make([][]float64, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := make([]float64, b.Dx())
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			row[x-b.Min.X] = float64(g.Y) / 0xffff
		}
		rows[y-b.Min.Y] = row
	}
	return rows, nil
}
