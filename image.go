// Copyright 2016 Aleksandr Demakin. All rights reserved.

package xshm

// ImageSize returns the number of bytes needed to store a z-pixmap image.
//	bitsPerPixel - pixel size, 32 for 24 and 32 bit depths on most servers.
//	scanlinePad - scanline alignment in bits. 8, 16 or 32.
func ImageSize(width, height uint16, bitsPerPixel, scanlinePad int) int {
	if scanlinePad <= 0 {
		scanlinePad = 8
	}
	bits := int(width) * bitsPerPixel
	stride := (bits + scanlinePad - 1) / scanlinePad * scanlinePad / 8
	return stride * int(height)
}
