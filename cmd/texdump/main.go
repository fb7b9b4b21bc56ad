package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"mirror-renderer/internal/texture"
)

// dumpTexture resolves a texture name the way the renderer does, decodes it
// and writes the decoded pixels as WebP into outDir. The report line goes to w.
func dumpTexture(w io.Writer, cache *texture.Cache, name, outDir string) error {
	img, err := cache.Load(name)
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	dst := filepath.Join(outDir, stem+"_dump.webp")
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()
	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("encode %s: %w", dst, err)
	}

	report(w, name, dst, img)
	return nil
}

// report prints one OK line with the size and opacity of a decoded texture.
func report(w io.Writer, name, dst string, img *image.NRGBA) {
	opaque := true
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			opaque = false
			break
		}
	}
	fmt.Fprintf(w, "OK  %s -> %s  (%dx%d, opaque=%v)\n", name, dst, img.Bounds().Dx(), img.Bounds().Dy(), opaque)
}

func main() {
	assets := flag.String("assets", "assets", "Comma-separated asset directories to index")
	outDir := flag.String("output", ".", "Output directory")
	flag.Parse()

	names := flag.Args()
	if len(names) == 0 {
		names = []string{"sample.png"}
	}

	index := texture.BuildIndex(strings.Split(*assets, ",")...)
	cache := texture.NewCache(index)
	fmt.Printf("Textures: %d indexed\n", index.Len())

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "ERR %v\n", err)
		os.Exit(1)
	}

	errors := 0
	for _, name := range names {
		if err := dumpTexture(os.Stdout, cache, name, *outDir); err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			errors++
		}
	}
	if errors > 0 {
		fmt.Printf("\nDone with %d error(s).\n", errors)
		os.Exit(1)
	}
	fmt.Println("\nDone. All textures decoded.")
}
