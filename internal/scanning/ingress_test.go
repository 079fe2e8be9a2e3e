package scanning

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ValidateUpload", func() {
	var (
		upload Upload
		data   []byte
		err    error
	)

	JustBeforeEach(func() {
		data, err = ValidateUpload(upload)
	})

	expectInvalid := func(kind InvalidKind) {
		GinkgoHelper()
		var scanErr *ScanError
		Expect(errors.As(err, &scanErr)).To(BeTrue())
		Expect(scanErr.Kind).To(Equal(KindInvalidInput))
		Expect(scanErr.Invalid).To(Equal(kind))
		Expect(data).To(BeNil())
	}

	When("the upload is a PNG", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "r.png", ContentType: "image/png", Size: 4, Data: []byte("\x89PNG")}
		})

		It("should return the bytes", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("\x89PNG")))
		})
	})

	When("the content type has parameters and odd casing", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "r.jpg", ContentType: "Image/JPEG; charset=binary", Size: 3, Data: []byte("abc")}
		})

		It("should accept it", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("no content type is declared", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "receipt.JPEG", ContentType: "application/octet-stream", Size: 3, Data: []byte("abc")}
		})

		It("should fall back to the extension", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("no file was uploaded", func() {
		BeforeEach(func() {
			upload = Upload{}
		})

		It("should be missing-file", func() {
			expectInvalid(InvalidMissingFile)
		})
	})

	When("the file is empty", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "r.png", ContentType: "image/png", Data: []byte{}}
		})

		It("should be missing-file", func() {
			expectInvalid(InvalidMissingFile)
		})
	})

	When("the file is a PDF", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "r.pdf", ContentType: "application/pdf", Size: 4, Data: []byte("%PDF")}
		})

		It("should be bad-type", func() {
			expectInvalid(InvalidBadType)
		})
	})

	When("the file is exactly 10MiB", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "r.png", ContentType: "image/png", Size: MaxUploadSize, Data: make([]byte, MaxUploadSize)}
		})

		It("should be accepted", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the file is one byte over 10MiB", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "r.png", ContentType: "image/png", Size: MaxUploadSize + 1, Data: make([]byte, MaxUploadSize+1)}
		})

		It("should be too-large", func() {
			expectInvalid(InvalidTooLarge)
		})
	})

	When("a large file also has a bad type", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "r.gif", ContentType: "image/gif", Size: MaxUploadSize + 1}
		})

		It("should report the size first", func() {
			expectInvalid(InvalidTooLarge)
		})
	})
})
