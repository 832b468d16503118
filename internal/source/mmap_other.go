//go:build !unix

package source

import "os"

func mapFile(*os.File, int) (Chunker, error) {
	return nil, errNoMmap
}
