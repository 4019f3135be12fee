package engine

// Dest is the target class for an outgoing network message. Values match
// the host's MSG_* destination table.
type Dest int32

const (
	DestBroadcast     Dest = 0 // unreliable, all clients
	DestOne           Dest = 1 // reliable, one client
	DestAll           Dest = 2 // reliable, all clients
	DestInit          Dest = 3 // written into the signon buffer
	DestPVS           Dest = 4 // clients potentially visible from origin
	DestPAS           Dest = 5 // clients potentially audible from origin
	DestPVSReliable   Dest = 6
	DestPASReliable   Dest = 7
	DestOneUnreliable Dest = 8 // unreliable, one client
	DestSpec          Dest = 9 // spectator proxies only
)

// Targeted reports whether the destination addresses a single recipient.
// Broadcast-class destinations ignore any recipient and the sender clears
// it before transmission.
func (d Dest) Targeted() bool {
	return d == DestOne || d == DestOneUnreliable
}

func (d Dest) String() string {
	switch d {
	case DestBroadcast:
		return "broadcast"
	case DestOne:
		return "one"
	case DestAll:
		return "all"
	case DestInit:
		return "init"
	case DestPVS:
		return "pvs"
	case DestPAS:
		return "pas"
	case DestPVSReliable:
		return "pvs_reliable"
	case DestPASReliable:
		return "pas_reliable"
	case DestOneUnreliable:
		return "one_unreliable"
	case DestSpec:
		return "spec"
	default:
		return "unknown"
	}
}
