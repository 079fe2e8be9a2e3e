package scanning

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// hugePNG writes a 1-bit grayscale PNG header declaring width x height pixels
// followed by a token image body
func hugePNG(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(kind string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		buf.WriteString(kind)
		buf.Write(data)
		crc := crc32.NewIEEE()
		crc.Write([]byte(kind))
		crc.Write(data)
		_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 1 // bit depth
	ihdr[9] = 0 // grayscale
	chunk("IHDR", ihdr)
	chunk("IDAT", []byte{0x78, 0x9c, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01})
	chunk("IEND", nil)
	return buf.Bytes()
}

var _ = Describe("Preprocessor", func() {
	var (
		preprocessor *Preprocessor
		input        []byte
		output       []byte
		err          error
	)

	BeforeEach(func() {
		preprocessor = NewPreprocessor(200)
	})

	JustBeforeEach(func() {
		output, err = preprocessor.Preprocess(input)
	})

	decode := func(data []byte) image.Image {
		GinkgoHelper()
		img, err := png.Decode(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		return img
	}

	When("the image is wider than the maximum", func() {
		BeforeEach(func() {
			input = receiptPNG(400, 100)
		})

		It("should resize keeping the aspect ratio", func() {
			Expect(err).NotTo(HaveOccurred())
			b := decode(output).Bounds()
			Expect(b.Dx()).To(Equal(200))
			Expect(b.Dy()).To(Equal(50))
		})

		It("should produce grayscale pixels", func() {
			img := decode(output)
			r, g, b, _ := img.At(100, 25).RGBA()
			Expect(r).To(Equal(g))
			Expect(g).To(Equal(b))
		})
	})

	When("the image is narrower than the maximum", func() {
		BeforeEach(func() {
			input = receiptPNG(120, 60)
		})

		It("should keep its size", func() {
			Expect(err).NotTo(HaveOccurred())
			b := decode(output).Bounds()
			Expect(b.Dx()).To(Equal(120))
			Expect(b.Dy()).To(Equal(60))
		})

		It("should stretch contrast to full range", func() {
			img := decode(output)
			var darkest, lightest uint8 = 255, 0
			for y := 0; y < 60; y++ {
				for x := 0; x < 120; x++ {
					l := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
					darkest = min(darkest, l)
					lightest = max(lightest, l)
				}
			}
			Expect(darkest).To(BeNumerically("<", 30))
			Expect(lightest).To(BeNumerically(">", 240))
		})
	})

	When("the image is a single flat color", func() {
		BeforeEach(func() {
			input = blankPNG(50, 50)
		})

		It("should still succeed", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(decode(output).Bounds().Dx()).To(Equal(50))
		})
	})

	When("the bytes are not an image", func() {
		BeforeEach(func() {
			input = []byte("definitely not a png")
		})

		It("should be unreadable", func() {
			var scanErr *ScanError
			Expect(errors.As(err, &scanErr)).To(BeTrue())
			Expect(scanErr.Kind).To(Equal(KindUnreadable))
			Expect(output).To(BeNil())
		})
	})

	When("the image declares more pixels than allowed", func() {
		BeforeEach(func() {
			input = hugePNG(50000, 50000)
		})

		It("should be unreadable without decoding the pixels", func() {
			Expect(ValidateUpload(Upload{Filename: "huge.png", ContentType: "image/png", Size: int64(len(input)), Data: input})).To(Equal(input))
			var scanErr *ScanError
			Expect(errors.As(err, &scanErr)).To(BeTrue())
			Expect(scanErr.Kind).To(Equal(KindUnreadable))
			Expect(scanErr.Detail).To(Equal("image is 50000x50000 pixels"))
			Expect(output).To(BeNil())
		})
	})

	When("created with a non-positive width", func() {
		It("should use the default", func() {
			Expect(NewPreprocessor(0).MaxWidth).To(Equal(DefaultMaxWidth))
		})
	})
})
