// Package srt reads and writes SubRip subtitle files.
package srt
