// Package language converts language codes into display names.
package language
