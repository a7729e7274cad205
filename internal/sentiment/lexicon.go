package sentiment

// lexicon holds mean valence ratings on a -4..+4 scale, taken from the VADER
// lexicon and limited to the vocabulary people use when describing how they
// feel. Words absent here score zero. Unlike VADER, okay, ok and alright are
// left out so that "I feel okay" reads as neutral.
var lexicon = map[string]float64{
	// positive
	"good":        1.9,
	"great":       3.1,
	"happy":       2.7,
	"happier":     2.4,
	"happiness":   2.6,
	"glad":        2.0,
	"love":        3.2,
	"loved":       2.9,
	"lovely":      2.8,
	"like":        1.5,
	"nice":        1.8,
	"fine":        0.8,
	"better":      1.9,
	"best":        3.2,
	"wonderful":   2.7,
	"amazing":     2.8,
	"awesome":     3.1,
	"excellent":   2.7,
	"fantastic":   2.6,
	"calm":        1.3,
	"relaxed":     2.2,
	"relief":      2.1,
	"relieved":    1.6,
	"hope":        1.9,
	"hopeful":     2.3,
	"excited":     1.4,
	"grateful":    2.0,
	"thankful":    2.7,
	"thanks":      1.9,
	"joy":         2.8,
	"joyful":      2.9,
	"peaceful":    2.2,
	"proud":       2.1,
	"confident":   2.2,
	"positive":    2.6,
	"cheerful":    2.5,
	"safe":        1.9,
	"support":     1.7,
	"supported":   1.3,
	"helpful":     1.8,
	"enjoy":       2.2,
	"enjoyed":     2.3,
	"fun":         2.3,
	"smile":       1.5,
	"laugh":       2.6,
	"motivated":   1.3,
	"energetic":   2.2,
	"optimistic":  1.9,
	"pleased":     1.9,
	"satisfied":   1.8,
	"loving":      2.9,
	"yes":         1.7,
	"beautiful":   2.9,
	"free":        2.3,
	"strong":      2.3,
	"healthy":     1.7,
	"improving":   1.3,
	"improved":    2.1,
	"productive":  1.6,

	// negative
	"no":           -1.2,
	"bad":          -2.5,
	"sad":          -2.1,
	"sadness":      -1.9,
	"unhappy":      -1.8,
	"depressed":    -2.3,
	"depression":   -2.7,
	"depressing":   -1.6,
	"anxious":      -1.0,
	"anxiety":      -0.7,
	"stressed":     -1.4,
	"stress":       -1.8,
	"stressful":    -1.9,
	"worried":      -1.2,
	"worry":        -1.9,
	"worrying":     -1.4,
	"angry":        -2.3,
	"anger":        -2.7,
	"upset":        -1.6,
	"lonely":       -1.5,
	"loneliness":   -1.8,
	"alone":        -1.0,
	"tired":        -1.9,
	"exhausted":    -1.5,
	"hurt":         -2.4,
	"hurts":        -2.1,
	"pain":         -2.3,
	"painful":      -1.9,
	"afraid":       -1.9,
	"scared":       -1.9,
	"fear":         -2.2,
	"terrible":     -2.1,
	"awful":        -2.0,
	"horrible":     -2.5,
	"hate":         -2.7,
	"cry":          -2.1,
	"crying":       -2.1,
	"lost":         -1.3,
	"hopeless":     -2.0,
	"worthless":    -1.9,
	"miserable":    -2.2,
	"frustrated":   -2.0,
	"frustrating":  -1.9,
	"frustration":  -2.1,
	"overwhelmed":  -1.5,
	"nervous":      -1.1,
	"panic":        -2.3,
	"guilty":       -1.8,
	"guilt":        -1.1,
	"ashamed":      -2.1,
	"fail":         -2.5,
	"failed":       -2.3,
	"failure":      -2.3,
	"problem":      -1.7,
	"problems":     -1.7,
	"trouble":      -1.7,
	"difficult":    -1.5,
	"sick":         -2.3,
	"kill":         -3.7,
	"die":          -2.9,
	"suicide":      -3.5,
	"grief":        -2.2,
	"sorrow":       -2.4,
	"disappointed": -1.9,
	"bored":        -1.1,
	"boring":       -1.3,
	"annoyed":      -1.6,
	"mad":          -2.2,
	"jealous":      -2.0,
	"confused":     -1.3,
	"insecure":     -1.8,
	"weak":         -1.9,
	"sucks":        -1.5,
	"worse":        -2.1,
	"worst":        -3.1,
	"broken":       -1.1,
	"fight":        -1.6,
	"fighting":     -1.5,
	"argument":     -1.5,
	"breakup":      -1.9,
	"rejected":     -2.1,
	"sorry":        -0.3,
	"unfair":       -2.1,
	"toxic":        -2.4,
}

// boosters scale the valence of the word that follows them
var boosters = map[string]float64{
	"absolutely":    bIncr,
	"amazingly":     bIncr,
	"awfully":       bIncr,
	"completely":    bIncr,
	"considerably":  bIncr,
	"deeply":        bIncr,
	"enormously":    bIncr,
	"entirely":      bIncr,
	"especially":    bIncr,
	"exceptionally": bIncr,
	"extremely":     bIncr,
	"fully":         bIncr,
	"greatly":       bIncr,
	"highly":        bIncr,
	"hugely":        bIncr,
	"incredibly":    bIncr,
	"intensely":     bIncr,
	"majorly":       bIncr,
	"more":          bIncr,
	"most":          bIncr,
	"particularly":  bIncr,
	"purely":        bIncr,
	"quite":         bIncr,
	"really":        bIncr,
	"remarkably":    bIncr,
	"so":            bIncr,
	"substantially": bIncr,
	"thoroughly":    bIncr,
	"totally":       bIncr,
	"tremendously":  bIncr,
	"unbelievably":  bIncr,
	"unusually":     bIncr,
	"utterly":       bIncr,
	"very":          bIncr,

	"almost":       bDecr,
	"barely":       bDecr,
	"hardly":       bDecr,
	"kinda":        bDecr,
	"less":         bDecr,
	"little":       bDecr,
	"marginally":   bDecr,
	"occasionally": bDecr,
	"partly":       bDecr,
	"scarcely":     bDecr,
	"slightly":     bDecr,
	"somewhat":     bDecr,
	"sorta":        bDecr,
}

var negations = map[string]struct{}{
	"aint": {}, "arent": {}, "cannot": {}, "cant": {}, "couldnt": {}, "darent": {},
	"didnt": {}, "doesnt": {}, "dont": {}, "hadnt": {}, "hasnt": {}, "havent": {},
	"isnt": {}, "mightnt": {}, "mustnt": {}, "neither": {}, "neednt": {}, "never": {},
	"none": {}, "nope": {}, "nor": {}, "not": {}, "nothing": {}, "nowhere": {},
	"oughtnt": {}, "shant": {}, "shouldnt": {}, "uhuh": {}, "wasnt": {}, "werent": {},
	"without": {}, "wont": {}, "wouldnt": {}, "rarely": {}, "seldom": {}, "despite": {},
}
