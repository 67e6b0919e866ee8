package rpmfile

import "github.com/ralt/rpmorder/internal/models"

// Header tags not exported by go-rpmutils
const (
	tagEpoch           = 1003
	tagProvideName     = 1047
	tagRequireFlags    = 1048
	tagRequireName     = 1049
	tagRequireVersion  = 1050
	tagConflictFlags   = 1053
	tagConflictName    = 1054
	tagConflictVersion = 1055
	tagTriggerName     = 1066
	tagTriggerVersion  = 1067
	tagTriggerFlags    = 1068
	tagObsoleteName    = 1090
	tagProvideFlags    = 1112
	tagProvideVersion  = 1113
	tagObsoleteFlags   = 1114
	tagObsoleteVersion = 1115
)

// unix file type bits from the file mode tag
const (
	modeTypeMask = 0170000
	modeDir      = 0040000
	modeSymlink  = 0120000
	modeFifo     = 0010000
	modeChar     = 0020000
	modeBlock    = 0060000
	modeSocket   = 0140000
)

type depTags struct {
	name, flags, version int
}

var depTagsByKind = []struct {
	kind models.DepKind
	tags depTags
}{
	{models.DepProvides, depTags{tagProvideName, tagProvideFlags, tagProvideVersion}},
	{models.DepRequires, depTags{tagRequireName, tagRequireFlags, tagRequireVersion}},
	{models.DepConflicts, depTags{tagConflictName, tagConflictFlags, tagConflictVersion}},
	{models.DepObsoletes, depTags{tagObsoleteName, tagObsoleteFlags, tagObsoleteVersion}},
	{models.DepTriggers, depTags{tagTriggerName, tagTriggerFlags, tagTriggerVersion}},
}
