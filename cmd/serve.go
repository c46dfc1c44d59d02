// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/net/webdav"

	"github.com/miriki/ti99-dskimg-lib-sub001/webdavfs"
)

var serveAddr string
var servePreset string

// serveCmd mounts a disk image's directory as a WebDAV share.
var serveCmd = &cobra.Command{
	Use:   "serve disk-image",
	Short: "serve a disk image's files over WebDAV",
	Long: `Serve exposes a disk image's flat directory as a WebDAV
collection, so it can be mounted and browsed or edited with any
WebDAV client.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(args[0])
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8099", "address to listen on")
	serveCmd.Flags().StringVar(&servePreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
}

func runServe(path string) error {
	h, err := openHandle(path, servePreset)
	if err != nil {
		return err
	}

	handler := &webdav.Handler{
		FileSystem: webdavfs.New(h),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, e error) {
			log.Println(r.Method, r.URL.Path, e)
			if e == nil && r.Method != http.MethodGet && r.Method != http.MethodHead && r.Method != http.MethodOptions {
				if err := saveHandle(path, h); err != nil {
					log.Println("persisting", path, ":", err)
				}
			}
		},
	}

	fmt.Printf("Serving %q over WebDAV at http://%s/\n", path, serveAddr)
	return http.ListenAndServe(serveAddr, handler)
}
