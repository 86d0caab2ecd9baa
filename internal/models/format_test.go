package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	require.Equal(t, FormatFB2, ParseFormat("fb2"))
	require.Equal(t, FormatFB2, ParseFormat("fb2.zip"))
	require.Equal(t, FormatEPUB, ParseFormat(" Epub "))
	require.Equal(t, FormatMOBI, ParseFormat("MOBI"))
	require.Equal(t, FormatUnknown, ParseFormat("djvu"))
	require.Equal(t, FormatUnknown, ParseFormat(""))
}
