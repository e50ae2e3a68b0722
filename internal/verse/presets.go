package verse

// Verse is a single scripture entry. FetchedAt is set only on records
// that came from the remote service.
type Verse struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
	Version   string `json:"version"`
	FetchedAt int64  `json:"fetchedAt,omitempty"`
}

// Quote is an attributed inspirational quote from the static corpus.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// DefaultTranslation is the translation of the hardcoded fallback corpus.
const DefaultTranslation = "NKJV"

// corpusKeys fixes the daily-selection order of the verse corpus. The
// day-of-year index is taken over this slice, so the order is part of
// the deterministic-selection contract.
var corpusKeys = []string{
	"1cor-3:23",
	"1cor-10:31",
	"1cor-13:4-7",
	"phil-4:13",
	"phil-4:6-7",
	"prov-3:5-6",
	"prov-16:3",
	"prov-18:10",
	"ps-23:1",
	"ps-46:1",
	"ps-119:105",
	"john-3:16",
	"john-14:6",
	"rom-8:28",
	"rom-12:2",
	"jer-29:11",
	"matt-28:19-20",
	"1thess-5:16-18",
}

// presets holds the bundled translations.
var presets = map[string]map[string]Verse{
	"NKJV": {
		"1cor-3:23":      {Text: "And you are of Christ, and Christ is of God.", Reference: "1 Corinthians 3:23", Version: "NKJV"},
		"1cor-10:31":     {Text: "Therefore, whether you eat or drink, or whatever you do, do all to the glory of God.", Reference: "1 Corinthians 10:31", Version: "NKJV"},
		"1cor-13:4-7":    {Text: "Love suffers long and is kind; love does not envy; love does not parade itself, is not puffed up; does not behave rudely, does not seek its own, is not provoked, thinks no evil; does not rejoice in iniquity, but rejoices in the truth; bears all things, believes all things, hopes all things, endures all things.", Reference: "1 Corinthians 13:4-7", Version: "NKJV"},
		"phil-4:13":      {Text: "I can do all things through Christ who strengthens me.", Reference: "Philippians 4:13", Version: "NKJV"},
		"phil-4:6-7":     {Text: "Be anxious for nothing, but in everything by prayer and supplication, with thanksgiving, let your requests be made known to God; and the peace of God, which surpasses all understanding, will guard your hearts and minds through Christ Jesus.", Reference: "Philippians 4:6-7", Version: "NKJV"},
		"prov-3:5-6":     {Text: "Trust in the LORD with all your heart, and lean not on your own understanding; in all your ways acknowledge Him, and He shall direct your paths.", Reference: "Proverbs 3:5-6", Version: "NKJV"},
		"prov-16:3":      {Text: "Commit your works to the LORD, and your thoughts will be established.", Reference: "Proverbs 16:3", Version: "NKJV"},
		"prov-18:10":     {Text: "The name of the LORD is a strong tower; the righteous run to it and are safe.", Reference: "Proverbs 18:10", Version: "NKJV"},
		"ps-23:1":        {Text: "The LORD is my shepherd; I shall not want.", Reference: "Psalm 23:1", Version: "NKJV"},
		"ps-46:1":        {Text: "God is our refuge and strength, a very present help in trouble.", Reference: "Psalm 46:1", Version: "NKJV"},
		"ps-119:105":     {Text: "Your word is a lamp to my feet and a light to my path.", Reference: "Psalm 119:105", Version: "NKJV"},
		"john-3:16":      {Text: "For God so loved the world that He gave His only begotten Son, that whoever believes in Him should not perish but have everlasting life.", Reference: "John 3:16", Version: "NKJV"},
		"john-14:6":      {Text: "Jesus said to him, \"I am the way, the truth, and the life. No one comes to the Father except through Me.\"", Reference: "John 14:6", Version: "NKJV"},
		"rom-8:28":       {Text: "And we know that all things work together for good to those who love God, to those who are the called according to His purpose.", Reference: "Romans 8:28", Version: "NKJV"},
		"rom-12:2":       {Text: "And do not be conformed to this world, but be transformed by the renewing of your mind, that you may prove what is that good and acceptable and perfect will of God.", Reference: "Romans 12:2", Version: "NKJV"},
		"jer-29:11":      {Text: "For I know the thoughts that I think toward you, says the LORD, thoughts of peace and not of evil, to give you a future and a hope.", Reference: "Jeremiah 29:11", Version: "NKJV"},
		"matt-28:19-20":  {Text: "Go therefore and make disciples of all the nations, baptizing them in the name of the Father and of the Son and of the Holy Spirit, teaching them to observe all things that I have commanded you; and lo, I am with you always, even to the end of the age.", Reference: "Matthew 28:19-20", Version: "NKJV"},
		"1thess-5:16-18": {Text: "Rejoice always, pray without ceasing, in everything give thanks; for this is the will of God in Christ Jesus for you.", Reference: "1 Thessalonians 5:16-18", Version: "NKJV"},
	},
	"CSB": {
		"1cor-3:23":      {Text: "You belong to Christ, and Christ belongs to God.", Reference: "1 Corinthians 3:23", Version: "CSB"},
		"1cor-10:31":     {Text: "So, whether you eat or drink, or whatever you do, do everything for the glory of God.", Reference: "1 Corinthians 10:31", Version: "CSB"},
		"1cor-13:4-7":    {Text: "Love is patient, love is kind. Love does not envy, is not boastful, is not arrogant, is not rude, is not self-seeking, is not irritable, and does not keep a record of wrongs. Love finds no joy in unrighteousness but rejoices in the truth. It bears all things, believes all things, hopes all things, endures all things.", Reference: "1 Corinthians 13:4-7", Version: "CSB"},
		"phil-4:13":      {Text: "I am able to do all things through him who strengthens me.", Reference: "Philippians 4:13", Version: "CSB"},
		"phil-4:6-7":     {Text: "Don't worry about anything, but in everything, through prayer and petition with thanksgiving, present your requests to God. And the peace of God, which surpasses all understanding, will guard your hearts and minds in Christ Jesus.", Reference: "Philippians 4:6-7", Version: "CSB"},
		"prov-3:5-6":     {Text: "Trust in the LORD with all your heart, and do not rely on your own understanding; in all your ways know him, and he will make your paths straight.", Reference: "Proverbs 3:5-6", Version: "CSB"},
		"prov-16:3":      {Text: "Commit your activities to the LORD, and your plans will be established.", Reference: "Proverbs 16:3", Version: "CSB"},
		"prov-18:10":     {Text: "The name of the LORD is a strong tower; the righteous run to it and are protected.", Reference: "Proverbs 18:10", Version: "CSB"},
		"ps-23:1":        {Text: "The LORD is my shepherd; I have what I need.", Reference: "Psalm 23:1", Version: "CSB"},
		"ps-46:1":        {Text: "God is our refuge and strength, a helper who is always found in times of trouble.", Reference: "Psalm 46:1", Version: "CSB"},
		"ps-119:105":     {Text: "Your word is a lamp for my feet and a light on my path.", Reference: "Psalm 119:105", Version: "CSB"},
		"john-3:16":      {Text: "For God loved the world in this way: He gave his one and only Son, so that everyone who believes in him will not perish but have eternal life.", Reference: "John 3:16", Version: "CSB"},
		"john-14:6":      {Text: "Jesus told him, \"I am the way, the truth, and the life. No one comes to the Father except through me.\"", Reference: "John 14:6", Version: "CSB"},
		"rom-8:28":       {Text: "We know that all things work together for the good of those who love God, who are called according to his purpose.", Reference: "Romans 8:28", Version: "CSB"},
		"rom-12:2":       {Text: "Do not be conformed to this age, but be transformed by the renewing of your mind, so that you may discern what is the good, pleasing, and perfect will of God.", Reference: "Romans 12:2", Version: "CSB"},
		"jer-29:11":      {Text: "For I know the plans I have for you—this is the LORD's declaration—plans for your well-being, not for disaster, to give you a future and a hope.", Reference: "Jeremiah 29:11", Version: "CSB"},
		"matt-28:19-20":  {Text: "Go, therefore, and make disciples of all nations, baptizing them in the name of the Father and of the Son and of the Holy Spirit, teaching them to observe everything I have commanded you. And remember, I am with you always, to the end of the age.", Reference: "Matthew 28:19-20", Version: "CSB"},
		"1thess-5:16-18": {Text: "Rejoice always, pray constantly, give thanks in everything; for this is God's will for you in Christ Jesus.", Reference: "1 Thessalonians 5:16-18", Version: "CSB"},
	},
	"ESV": {
		"1cor-3:23":      {Text: "And you are Christ's, and Christ is God's.", Reference: "1 Corinthians 3:23", Version: "ESV"},
		"1cor-10:31":     {Text: "So, whether you eat or drink, or whatever you do, do all to the glory of God.", Reference: "1 Corinthians 10:31", Version: "ESV"},
		"1cor-13:4-7":    {Text: "Love is patient and kind; love does not envy or boast; it is not arrogant or rude. It does not insist on its own way; it is not irritable or resentful; it does not rejoice at wrongdoing, but rejoices with the truth. Love bears all things, believes all things, hopes all things, endures all things.", Reference: "1 Corinthians 13:4-7", Version: "ESV"},
		"phil-4:13":      {Text: "I can do all things through him who strengthens me.", Reference: "Philippians 4:13", Version: "ESV"},
		"phil-4:6-7":     {Text: "Do not be anxious about anything, but in everything by prayer and supplication with thanksgiving let your requests be made known to God. And the peace of God, which surpasses all understanding, will guard your hearts and your minds in Christ Jesus.", Reference: "Philippians 4:6-7", Version: "ESV"},
		"prov-3:5-6":     {Text: "Trust in the LORD with all your heart, and do not lean on your own understanding. In all your ways acknowledge him, and he will make straight your paths.", Reference: "Proverbs 3:5-6", Version: "ESV"},
		"prov-16:3":      {Text: "Commit your work to the LORD, and your plans will be established.", Reference: "Proverbs 16:3", Version: "ESV"},
		"prov-18:10":     {Text: "The name of the LORD is a strong tower; the righteous man runs into it and is safe.", Reference: "Proverbs 18:10", Version: "ESV"},
		"ps-23:1":        {Text: "The LORD is my shepherd; I shall not want.", Reference: "Psalm 23:1", Version: "ESV"},
		"ps-46:1":        {Text: "God is our refuge and strength, a very present help in trouble.", Reference: "Psalm 46:1", Version: "ESV"},
		"ps-119:105":     {Text: "Your word is a lamp to my feet and a light to my path.", Reference: "Psalm 119:105", Version: "ESV"},
		"john-3:16":      {Text: "For God so loved the world, that he gave his only Son, that whoever believes in him should not perish but have eternal life.", Reference: "John 3:16", Version: "ESV"},
		"john-14:6":      {Text: "Jesus said to him, \"I am the way, and the truth, and the life. No one comes to the Father except through me.\"", Reference: "John 14:6", Version: "ESV"},
		"rom-8:28":       {Text: "And we know that for those who love God all things work together for good, for those who are called according to his purpose.", Reference: "Romans 8:28", Version: "ESV"},
		"rom-12:2":       {Text: "Do not be conformed to this world, but be transformed by the renewal of your mind, that by testing you may discern what is the will of God, what is good and acceptable and perfect.", Reference: "Romans 12:2", Version: "ESV"},
		"jer-29:11":      {Text: "For I know the plans I have for you, declares the LORD, plans for welfare and not for evil, to give you a future and a hope.", Reference: "Jeremiah 29:11", Version: "ESV"},
		"matt-28:19-20":  {Text: "Go therefore and make disciples of all nations, baptizing them in the name of the Father and of the Son and of the Holy Spirit, teaching them to observe all that I have commanded you. And behold, I am with you always, to the end of the age.", Reference: "Matthew 28:19-20", Version: "ESV"},
		"1thess-5:16-18": {Text: "Rejoice always, pray without ceasing, give thanks in all circumstances; for this is the will of God in Christ Jesus for you.", Reference: "1 Thessalonians 5:16-18", Version: "ESV"},
	},
}

// quotes is the static quote corpus used by {{quoteOfTheDay}} and
// {{randomQuote}}. Quotes have no remote or cache tier.
var quotes = []Quote{
	{Text: "Education is the most powerful weapon which you can use to change the world.", Author: "Nelson Mandela"},
	{Text: "The beautiful thing about learning is that no one can take it away from you.", Author: "B.B. King"},
	{Text: "Education is not preparation for life; education is life itself.", Author: "John Dewey"},
	{Text: "The function of education is to teach one to think intensively and to think critically. Intelligence plus character - that is the goal of true education.", Author: "Martin Luther King Jr."},
	{Text: "Live as if you were to die tomorrow. Learn as if you were to live forever.", Author: "Mahatma Gandhi"},
	{Text: "The only person who is educated is the one who has learned how to learn and change.", Author: "Carl Rogers"},
	{Text: "Excellence is not a skill. It is an attitude.", Author: "Ralph Marston"},
	{Text: "Success is not final, failure is not fatal: it is the courage to continue that counts.", Author: "Winston Churchill"},
	{Text: "The expert in anything was once a beginner.", Author: "Helen Hayes"},
	{Text: "Do not go where the path may lead, go instead where there is no path and leave a trail.", Author: "Ralph Waldo Emerson"},
}

// Translations returns the bundled translation codes.
func Translations() []string {
	return []string{"NKJV", "CSB", "ESV"}
}

// apiTranslations maps user-facing translation codes onto codes the
// remote service actually serves.
var apiTranslations = map[string]string{
	"CSB":  "web",
	"ESV":  "web",
	"NIV":  "web",
	"NKJV": "kjv",
	"KJV":  "kjv",
	"NLT":  "web",
	"NASB": "web",
	"AMP":  "web",
	"MSG":  "web",
}

func apiTranslation(code string) string {
	if mapped, ok := apiTranslations[code]; ok {
		return mapped
	}
	return "web"
}
