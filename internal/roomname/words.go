package roomname

var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "purple", "blue", "red", "green", "bright", "gentle",
	"brave", "calm", "swift", "silent", "noisy", "bouncy", "fuzzy", "plucky", "merry", "peppy",
}

var animals = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog", "squirrel", "hamster",
	"chick", "duckling", "fawn", "foal", "lamb", "calf", "porcupine", "raccoon", "beaver", "mole",
	"seahorse", "starfish", "dolphin", "whale", "narwhal", "penguin", "flamingo", "pelican", "robin", "toucan",
}

var dishes = []string{
	"pancake", "waffle", "sushi", "ramen", "curry", "taco", "burrito", "biryani", "paella", "risotto",
	"lasagna", "pizza", "dumpling", "noodle", "omelette", "quiche", "kebab", "fondue", "pierogi", "gnocchi",
	"falafel", "samosa", "poutine", "dimsum", "muffin", "biscuit", "cupcake", "toffee", "cocoa", "crumpet",
}

var things = []string{
	"sunbeam", "stardust", "bubble", "sprout", "glimmer", "whisker", "echo", "marble", "maple", "breeze",
	"meadow", "willow", "ember", "poppy", "pixel", "lantern", "puddle", "pebble", "cottage", "rocket",
	"comet", "orbit", "nebula", "canyon", "ridge", "thimble", "button", "drizzle", "splash", "chirp",
}
