package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanShellOutput(t *testing.T) {
	raw := "\r\n" +
		"RP/0/RSP0/CPU0:UPE9#terminal length 0\r\n" +
		"Mon Oct 19 10:00:00.123 UTC\r\n" +
		"RP/0/RSP0/CPU0:UPE9#show ospf neighbor\r\n" +
		"\x1b[K\r\n" +
		"Neighbor ID     Pri   State           Dead Time   Address         Interface\r\n" +
		"10.255.0.1      1     FULL/  -        00:00:38    10.1.1.1        Bundle-Ether1\r\n" +
		"\r\n" +
		"Total neighbor count: 1\r\n" +
		"RP/0/RSP0/CPU0:UPE9#exit\r\n"

	got := CleanShellOutput(raw, "show ospf neighbor")

	assert.Equal(t, "Mon Oct 19 10:00:00.123 UTC\n"+
		"\n"+
		"Neighbor ID     Pri   State           Dead Time   Address         Interface\n"+
		"10.255.0.1      1     FULL/  -        00:00:38    10.1.1.1        Bundle-Ether1\n"+
		"\n"+
		"Total neighbor count: 1", got)
}

func TestCleanShellOutputKeepsLookalikes(t *testing.T) {
	raw := "UPE9#\nUPE9>show version\nshow version\nBundle-Ether100 is up, line protocol is up\n  description: core#1 uplink\n"

	got := CleanShellOutput(raw, "show version")

	assert.Equal(t, "Bundle-Ether100 is up, line protocol is up\n  description: core#1 uplink", got)
}
