package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"unset", "", nil},
		{"single", "kafka:9092", []string{"kafka:9092"}},
		{"list with spaces", " a:9092, b:9092 ,", []string{"a:9092", "b:9092"}},
		{"only separators", " , ,", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseBrokers(tt.in))
		})
	}
}
