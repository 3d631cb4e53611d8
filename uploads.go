package main

import (
	"encoding/base64"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/procurement_backend/config"
)

// Bilty scans and weighbridge slips come in as photos; 10 MB is generous.
const maxUploadBytes = 10 << 20

// uploadHandler receives a multipart file, base64-encodes it and forwards it
// to the mutation endpoint, which stores it in the configured Drive folder
// and returns the shareable URL. The caller then writes that URL into a
// sheet cell (bilty image column and the like) with a separate update.
func (s *apiServer) uploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.sessionFirm(c); !ok {
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
			return
		}
		if header.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		if len(data) > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		// Prefix with a UUID so repeated uploads of identically named scans
		// never collide in the folder.
		name := uuid.NewString() + "-" + sanitizeFileName(header.Filename)

		ack, err := s.executor.UploadFile(
			c.Request.Context(),
			name,
			mimeType,
			base64.StdEncoding.EncodeToString(data),
			s.cfg.UploadFolderID,
		)
		if err != nil {
			config.LogError(s.logger, "uploads.go", "uploadHandler", "forwarding upload", name, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if !ack.Success {
			c.JSON(http.StatusBadGateway, gin.H{"error": ackMessage(ack)})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"fileName": name,
			"fileUrl":  ack.FileURL,
		})
	}
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
