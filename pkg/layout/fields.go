package layout

import (
	"fmt"
	"sort"
)

// Logical field names used as record keys.
const (
	NameGrade          = "学年"
	NameClass          = "組"
	NameNumber         = "出席番号"
	NameSex            = "性別"
	NameFullName       = "氏名"
	NameFullNameKana   = "氏名かな"
	NameLegalName      = "正式氏名"
	NameLegalNameKana  = "正式氏名かな"
	NameRowNumber      = "行番号"
	NameTransferOut    = "転出日"
	NamePhoto          = "写真"
	NameSiblings       = "在校兄弟"
	NameGuardian       = "保護者名"
	NamePrefecture     = "都道府県"
	NameCity           = "市区町村"
	NameStreet         = "町番地"
	NameBuilding       = "建物名"
	NameEmergency      = "緊急連絡先"
	NameBirthDate      = "生年月日"
	NameGuardianAddr   = "保護者住所"
	NameRegistryName   = "公簿名"
	NameRegistryKana   = "公簿名かな"
	NameFiscalYear     = "年度"
	NameFiscalYearEra  = "年度和暦"
	NameSchool         = "学校名"
	NameTeacher        = "担任名"
	NameAddress        = "住所"
	NamePage           = "ページ"
	NameTotal          = "総数"
	NameEnrollmentDate = "入学日"
	NameTransferIn     = "転入日"
)

// Field ids with special handling.
const (
	FieldPhoto uint32 = 400
)

// fieldNames maps field ids found in .lay files to logical names. The 9000
// range holds pseudo-fields with no id in the legacy system; they are used
// by layouts authored through the JSON mirror.
var fieldNames = map[uint32]string{
	// Student
	101: NameGrade,
	102: NameClass,
	104: NameGrade,
	105: NameClass,
	106: NameNumber,
	107: NameSex,
	108: NameFullName,
	109: NameFullNameKana,
	110: NameFiscalYearEra,
	133: NameRowNumber,
	134: NameFiscalYear,
	137: NameTransferOut,
	400: NamePhoto,

	// Contact and address
	601: NameSiblings,
	602: NameGuardian,
	603: NamePrefecture,
	604: NameCity,
	607: NameStreet,
	608: NameEmergency,
	610: NameBirthDate,
	683: NameGuardianAddr,
	685: NameRegistryName,
	686: NameRegistryKana,

	// Class assignment
	1500: "評定1",
	1501: "家庭環境",
	1502: "評定2",
	1504: "学級配慮",
	1505: "不適児童",
	1506: "欠席",
	1515: "新学級1",

	// Pseudo-fields
	9001: NameSchool,
	9002: NameTeacher,
	9003: NameAddress,
	9004: NamePage,
	9005: NameTotal,
	9006: NameGuardianAddr,
}

// displayNames overrides the label shown for a field in editors.
var displayNames = map[uint32]string{
	102: "学級",
	105: "学級",
	106: "番号(番無し)",
	110: "年度（和暦）",
	134: "年度（西暦）",
	133: "No.",
}

// FieldName resolves a field id to its logical name. Unknown ids resolve
// to "field_NNN".
func FieldName(id uint32) string {
	if name, ok := fieldNames[id]; ok {
		return name
	}
	return fmt.Sprintf("field_%d", id)
}

// KnownField reports whether id is in the dictionary.
func KnownField(id uint32) bool {
	_, ok := fieldNames[id]
	return ok
}

// DisplayName returns the editor label for a field id.
func DisplayName(id uint32) string {
	if name, ok := displayNames[id]; ok {
		return name
	}
	return FieldName(id)
}

// FieldID returns the lowest id mapped to name.
func FieldID(name string) (uint32, bool) {
	var ids []uint32
	for id, n := range fieldNames {
		if n == name {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, false
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids[0], true
}

// FieldIDs returns every dictionary id in ascending order.
func FieldIDs() []uint32 {
	ids := make([]uint32, 0, len(fieldNames))
	for id := range fieldNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
