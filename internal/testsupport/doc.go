// Package testsupport provides shared helpers for package tests: temp
// configs, throwaway WAV fixtures, and job store setup.
package testsupport
