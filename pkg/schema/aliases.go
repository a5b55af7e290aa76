package schema

// DefaultAliases maps the column names written by newer capture tool versions to
// the names the classifier was trained on. The CWR → CWE entry is intentional, the
// training datasets carry the misspelled name.
var DefaultAliases = map[string]string{
	"Total Fwd Packet":           "Total Fwd Packets",
	"Total Bwd packets":          "Total Backward Packets",
	"Total Length of Fwd Packet": "Total Length of Fwd Packets",
	"Total Length of Bwd Packet": "Total Length of Bwd Packets",
	"Packet Length Min":          "Min Packet Length",
	"Packet Length Max":          "Max Packet Length",
	"Fwd Segment Size Avg":       "Avg Fwd Segment Size",
	"Bwd Segment Size Avg":       "Avg Bwd Segment Size",
	"Fwd Bytes/Bulk Avg":         "Fwd Avg Bytes/Bulk",
	"Fwd Packet/Bulk Avg":        "Fwd Avg Packets/Bulk",
	"Fwd Bulk Rate Avg":          "Fwd Avg Bulk Rate",
	"Bwd Bytes/Bulk Avg":         "Bwd Avg Bytes/Bulk",
	"Bwd Packet/Bulk Avg":        "Bwd Avg Packets/Bulk",
	"Bwd Bulk Rate Avg":          "Bwd Avg Bulk Rate",
	"FWD Init Win Bytes":         "Init_Win_bytes_forward",
	"Bwd Init Win Bytes":         "Init_Win_bytes_backward",
	"Fwd Act Data Pkts":          "act_data_pkt_fwd",
	"Fwd Seg Size Min":           "min_seg_size_forward",
	"CWR Flag Count":             "CWE Flag Count",
}

// DefaultDropColumns lists the identifying columns that are never features.
// "Fwd Header Length.1" is the second copy of a header the training datasets
// repeat.
var DefaultDropColumns = []string{
	"Flow ID",
	"Timestamp",
	"Src IP",
	"Src Port",
	"Dst IP",
	"Dst Port",
	"Protocol",
	"Source IP",
	"Source Port",
	"Destination IP",
	"Destination Port",
	"Fwd Header Length.1",
}
