package form

// Districts are the 64 districts of Bangladesh offered by the district picklist,
// grouped by division.
var Districts = []string{
	// Dhaka
	"ঢাকা", "ফরিদপুর", "গাজীপুর", "গোপালগঞ্জ", "কিশোরগঞ্জ", "মাদারীপুর", "মানিকগঞ্জ",
	"মুন্সীগঞ্জ", "নারায়ণগঞ্জ", "নরসিংদী", "রাজবাড়ী", "শরীয়তপুর", "টাঙ্গাইল",
	// Chattogram
	"বান্দরবান", "ব্রাহ্মণবাড়িয়া", "চাঁদপুর", "চট্টগ্রাম", "কুমিল্লা", "কক্সবাজার",
	"ফেনী", "খাগড়াছড়ি", "লক্ষ্মীপুর", "নোয়াখালী", "রাঙ্গামাটি",
	// Rajshahi
	"বগুড়া", "জয়পুরহাট", "নওগাঁ", "নাটোর", "চাঁপাইনবাবগঞ্জ", "পাবনা", "রাজশাহী", "সিরাজগঞ্জ",
	// Khulna
	"বাগেরহাট", "চুয়াডাঙ্গা", "যশোর", "ঝিনাইদহ", "খুলনা", "কুষ্টিয়া", "মাগুরা",
	"মেহেরপুর", "নড়াইল", "সাতক্ষীরা",
	// Barishal
	"বরগুনা", "বরিশাল", "ভোলা", "ঝালকাঠি", "পটুয়াখালী", "পিরোজপুর",
	// Sylhet
	"হবিগঞ্জ", "মৌলভীবাজার", "সুনামগঞ্জ", "সিলেট",
	// Rangpur
	"দিনাজপুর", "গাইবান্ধা", "কুড়িগ্রাম", "লালমনিরহাট", "নীলফামারী", "পঞ্চগড়", "রংপুর", "ঠাকুরগাঁও",
	// Mymensingh
	"জামালপুর", "ময়মনসিংহ", "নেত্রকোণা", "শেরপুর",
}

// IsDistrict reports whether name is one of Districts.
func IsDistrict(name string) bool {
	for _, d := range Districts {
		if d == name {
			return true
		}
	}
	return false
}
