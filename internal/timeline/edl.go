package timeline

import (
	"fmt"
	"strings"
)

// ExportEDL renders a built track layout as a CMX3600-style edit decision
// list. Clips map to events; gaps only advance the record timecode. Source
// timecodes use the segment's recorded position, so the export reads the
// stored state, not the snapped presentation.
func ExportEDL(title string, items []TrackItem, rate int) string {
	lines := []string{fmt.Sprintf("TITLE: %s", title), "FCM: NON-DROP FRAME", ""}

	recordFrame := int64(0)
	event := 0
	for _, item := range items {
		if item.Kind != ItemKindClip {
			recordFrame += item.Duration.Frames
			continue
		}
		event++
		srcIn := item.SourceStart
		srcOut := RationalTime{Frames: item.SourceStart.Frames + item.Duration.Frames, Rate: rate}
		recIn := RationalTime{Frames: recordFrame, Rate: rate}
		recOut := RationalTime{Frames: recordFrame + item.Duration.Frames, Rate: rate}

		name := item.Name
		if name == "" {
			name = item.SegmentID.String()
		}
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", event, "AX", "V", srcIn.Timecode(), srcOut.Timecode(), recIn.Timecode(), recOut.Timecode()),
			fmt.Sprintf("* FROM CLIP NAME:  %s", name),
		)
		recordFrame += item.Duration.Frames
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
