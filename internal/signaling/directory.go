package signaling

// Directory maps room names to the connections currently joined, in join
// order. Rooms are created on first join and dropped once empty.
type Directory struct {
	rooms    map[string][]string
	memberOf map[string]string
}

// NewDirectory creates an empty room directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms:    make(map[string][]string),
		memberOf: make(map[string]string),
	}
}

// Join adds the connection to room and returns a snapshot of the members.
// paired is true only when this join brought the room to exactly two
// members. Joining the same room twice is a no-op; joining a different room
// moves the connection.
func (d *Directory) Join(id, room string) (members []string, paired bool) {
	if prev, ok := d.memberOf[id]; ok {
		if prev == room {
			return d.Members(room), false
		}
		d.remove(id, prev)
	}

	d.rooms[room] = append(d.rooms[room], id)
	d.memberOf[id] = room

	members = d.Members(room)
	return members, len(members) == 2
}

// Members returns a snapshot of the room's members.
func (d *Directory) Members(room string) []string {
	ids := d.rooms[room]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// RoomOf returns the room the connection is in.
func (d *Directory) RoomOf(id string) (string, bool) {
	room, ok := d.memberOf[id]
	return room, ok
}

// LeaveAll removes the connection from whatever room it was in.
func (d *Directory) LeaveAll(id string) (room string, ok bool) {
	room, ok = d.memberOf[id]
	if !ok {
		return "", false
	}
	d.remove(id, room)
	return room, true
}

// Len returns the number of non-empty rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}

func (d *Directory) remove(id, room string) {
	delete(d.memberOf, id)
	ids := d.rooms[room]
	for i, m := range ids {
		if m == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(d.rooms, room)
		return
	}
	d.rooms[room] = ids
}

// otherMember returns the member of a two-party room that is not id.
func otherMember(members []string, id string) string {
	for _, m := range members {
		if m != id {
			return m
		}
	}
	return ""
}
